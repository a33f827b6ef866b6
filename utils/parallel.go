package utils

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// SimpleFunc is for RunInParallel.
type SimpleFunc func() error

// RunInParallel runs all functions on their own goroutine and waits for every one of them. Errors are combined;
// a panic is turned into an error for the function that raised it and does not affect the others.
func RunInParallel(fs ...SimpleFunc) error {
	var wg sync.WaitGroup

	var bigError error
	var bigErrorMutex sync.Mutex
	storeError := func(err error) {
		bigErrorMutex.Lock()
		defer bigErrorMutex.Unlock()
		bigError = multierr.Combine(bigError, err)
	}

	for _, f := range fs {
		wg.Add(1)
		utils.PanicCapturingGo(func() {
			defer wg.Done()
			defer func() {
				if thePanic := recover(); thePanic != nil {
					storeError(fmt.Errorf("got panic running something in parallel: %v", thePanic))
				}
			}()
			if err := f(); err != nil {
				storeError(err)
			}
		})
	}

	wg.Wait()
	return bigError
}
