package source

import (
	"context"
	"runtime"
	"sync"

	"dicommpr/internal/models"
)

// decodeAll runs decode for indices 0..n-1 on at most workers goroutines
// (all CPUs when workers <= 0) and returns the records in index order. No
// new work is started once ctx is done.
func decodeAll(ctx context.Context, n, workers int, decode func(i int) models.SliceRecord) ([]models.SliceRecord, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	records := make([]models.SliceRecord, n)
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			records[i] = decode(i)
			<-sem
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// collect builds the report for decoded records, in order.
func (o Options) collect(records []models.SliceRecord) *Report {
	report := &Report{}
	for _, rec := range records {
		err := rec.Readable()
		report.add(rec.Key, err)
		if err != nil {
			o.logSkip(rec.Key, err)
		}
	}
	return report
}
