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
	"errors"
	"fmt"

	"github.com/apache/datasketches-kmv-go/aggregate"
	"github.com/apache/datasketches-kmv-go/kmv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errUnknownHasher = errors.New("unknown hasher")

type rootOptions struct {
	hasher      string
	logLevel    string
	capacity    int
	parallelism int
	seed        uint64
	compress    bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "kmv",
		Short:         "Estimate distinct counts with bounded-memory KMV sketches",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.IntVar(&opts.capacity, "capacity", kmv.DefaultCapacity, "Number of smallest hashes retained by each sketch.")
	flags.StringVar(&opts.hasher, "hasher", "murmur3", "Hash function applied to items: murmur3 or xxhash.")
	flags.Uint64Var(&opts.seed, "seed", kmv.DefaultSeed, "Seed of the hash function.")
	flags.BoolVar(&opts.compress, "compress", false, "Compress encoded partial states.")
	flags.IntVar(&opts.parallelism, "parallelism", 0, "Maximum number of input files read concurrently, 0 for no limit.")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn or error.")

	cmd.AddCommand(
		newEstimateCommand(opts),
		newPartialCommand(opts),
		newMergeCommand(opts),
		newJaccardCommand(opts),
	)
	return cmd
}

func (o *rootOptions) newLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(o.logLevel)
	if err != nil {
		return nil, err
	}
	config := zap.NewProductionConfig()
	config.Level = level
	return config.Build()
}

func (o *rootOptions) newHasher() (kmv.Hasher, error) {
	switch o.hasher {
	case "murmur3":
		return kmv.Murmur3Hasher{Seed: o.seed}, nil
	case "xxhash":
		return kmv.XXHasher{Seed: o.seed}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownHasher, o.hasher)
	}
}

// accumulatorOptions maps the flags onto accumulator options
func (o *rootOptions) accumulatorOptions(logger *zap.Logger) ([]aggregate.AccumulatorOptionFunc, error) {
	hasher, err := o.newHasher()
	if err != nil {
		return nil, err
	}
	return []aggregate.AccumulatorOptionFunc{
		aggregate.WithCapacity(o.capacity),
		aggregate.WithHasher(hasher),
		aggregate.WithCompression(o.compress),
		aggregate.WithLogger(logger),
	}, nil
}

// setup builds the logger and accumulator options of a command run
func (o *rootOptions) setup() (*zap.Logger, []aggregate.AccumulatorOptionFunc, error) {
	logger, err := o.newLogger()
	if err != nil {
		return nil, nil, err
	}
	accOpts, err := o.accumulatorOptions(logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	return logger, accOpts, nil
}
