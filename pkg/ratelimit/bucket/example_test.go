package bucket_test

import (
	"fmt"
	"time"

	"github.com/vnykmshr/webpool/pkg/ratelimit/bucket"
)

func Example() {
	// Accept at most 10 connections per second with bursts of 3.
	limiter, err := bucket.New(bucket.Every(100*time.Millisecond), 3)
	if err != nil {
		panic(err)
	}

	allowed := 0
	for i := 0; i < 5; i++ {
		if limiter.Allow() {
			allowed++
		}
	}
	fmt.Println("allowed:", allowed)
	// Output:
	// allowed: 3
}
