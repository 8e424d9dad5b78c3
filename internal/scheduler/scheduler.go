// Package scheduler runs download entries through the claim and fetch
// pipeline under a bounded worker pool.
package scheduler

import (
	"sync"

	"github.com/tanq16/grablist/internal/claim"
	"github.com/tanq16/grablist/internal/fetch"
	"github.com/tanq16/grablist/internal/report"
	"github.com/tanq16/grablist/internal/resolve"
	"github.com/tanq16/grablist/internal/source"
	"github.com/tanq16/grablist/internal/utils"
)

type Scheduler struct {
	downloadDir string
	workers     int
	claims      *claim.Manager
	executor    *fetch.Executor
}

func New(downloadDir string, workers int, claims *claim.Manager, executor *fetch.Executor) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		downloadDir: downloadDir,
		workers:     workers,
		claims:      claims,
		executor:    executor,
	}
}

// Run drains entries through the pool and returns once every dispatched
// task has a recorded outcome. Task failures never abort the run; they
// land in the summary.
func (s *Scheduler) Run(entries <-chan source.Entry) *report.Summary {
	agg := report.NewAggregator()
	resultCh := make(chan utils.Outcome, s.workers)

	var collectWg sync.WaitGroup
	collectWg.Add(1)
	go func() {
		defer collectWg.Done()
		for outcome := range resultCh {
			agg.Record(outcome)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range entries {
				resultCh <- s.process(entry)
			}
		}()
	}
	wg.Wait()
	close(resultCh)
	collectWg.Wait()

	return agg.Finalize()
}

// process runs one entry through resolve, claim and fetch, and always
// returns exactly one outcome.
func (s *Scheduler) process(entry source.Entry) utils.Outcome {
	log := utils.GetLogger("scheduler")

	var destPath string
	var err error
	if entry.OutputName != "" {
		destPath, err = resolve.DestinationName(s.downloadDir, entry.URL, entry.OutputName)
	} else {
		destPath, err = resolve.Destination(s.downloadDir, entry.URL)
	}
	if err != nil {
		log.Error().Err(err).Str("url", entry.URL).Msg("Failed to resolve destination")
		return failed(utils.Task{URL: entry.URL}, err)
	}
	task := utils.Task{URL: entry.URL, OutputPath: destPath}

	acquired, err := s.claims.Acquire(destPath)
	if err != nil {
		log.Error().Err(err).Str("url", task.URL).Msg("Claim primitive failed")
		return failed(task, err)
	}
	if !acquired {
		log.Debug().Str("url", task.URL).Str("output", destPath).Msg("Already (being) downloaded, skipping")
		return utils.Outcome{Task: task, Status: utils.StatusSkipped}
	}

	bytes, err := s.executor.Fetch(task)
	if err != nil {
		log.Error().Err(err).Str("url", task.URL).Msg("Download failed")
		if relErr := s.claims.Release(destPath); relErr != nil {
			log.Warn().Err(relErr).Str("output", destPath).Msg("Failed to release claim")
		}
		return failed(task, err)
	}
	log.Info().Str("url", task.URL).Str("output", destPath).Msg("Downloaded")
	return utils.Outcome{Task: task, Status: utils.StatusSuccess, Bytes: bytes}
}

func failed(task utils.Task, err error) utils.Outcome {
	return utils.Outcome{
		Task:   task,
		Status: utils.StatusFailed,
		Kind:   utils.KindOf(err),
		Err:    err,
	}
}
