/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/apache/datasketches-kmv-go/aggregate"
)

const maxLineSize = 1 << 20

// filePartition reads one item per line. Empty lines are skipped and "-" reads stdin.
func filePartition(path string, stdin io.Reader) aggregate.Partition {
	return func(ctx context.Context, yield func(value any) error) error {
		r := stdin
		if path != "-" {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}

		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			if err := yield(line); err != nil {
				return err
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		return nil
	}
}

func filePartitions(paths []string, stdin io.Reader) []aggregate.Partition {
	if len(paths) == 0 {
		paths = []string{"-"}
	}
	partitions := make([]aggregate.Partition, 0, len(paths))
	for _, path := range paths {
		partitions = append(partitions, filePartition(path, stdin))
	}
	return partitions
}

func printResult(w io.Writer, result aggregate.Result) error {
	_, err := fmt.Fprintf(w,
		"estimate:\t%.2f\nlower bound:\t%.2f\nupper bound:\t%.2f\nretained:\t%d\ncapacity:\t%d\nestimation mode:\t%t\n",
		result.Estimate, result.LowerBound, result.UpperBound,
		result.NumRetained, result.Capacity, result.EstimationMode)
	return err
}
