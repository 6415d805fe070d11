package fluid

import (
	"runtime"
	"sync"
)

// parallelRows is the minimum row count to fan a dispatch out.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelRows = 32

// rowChunk is a band of rows for a worker to process.
type rowChunk struct {
	start, end int
	run        func(y0, y1 int)
}

// rowPool is a persistent set of goroutines that process row bands.
type rowPool struct {
	numWorkers int

	workChan chan rowChunk  // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool
}

func newRowPool(workers int) *rowPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &rowPool{numWorkers: workers}
}

func (p *rowPool) startWorkers() {
	if p.running {
		return
	}

	p.workChan = make(chan rowChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *rowPool) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *rowPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			chunk.run(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// rows runs fn over [0, h) and returns once every band has finished.
func (p *rowPool) rows(h int, fn func(y0, y1 int)) {
	if h < parallelRows || p.numWorkers == 1 {
		fn(0, h)
		return
	}
	p.startWorkers()

	chunkSize := (h + p.numWorkers - 1) / p.numWorkers
	numChunks := 0
	for start := 0; start < h; start += chunkSize {
		end := min(start+chunkSize, h)
		p.workChan <- rowChunk{start: start, end: end, run: fn}
		numChunks++
	}
	for i := 0; i < numChunks; i++ {
		<-p.doneChan
	}
}
