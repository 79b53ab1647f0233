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
	"github.com/apache/datasketches-kmv-go/aggregate"
	"github.com/spf13/cobra"
)

func newEstimateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "estimate [files...]",
		Short: "Estimate the number of distinct lines across files",
		Long: `Estimate the number of distinct lines across files.
Every file is accumulated into its own sketch concurrently and the
partial states are merged at the end. Without files, stdin is read.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, accOpts, err := opts.setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			acc, err := aggregate.RunPartitions(cmd.Context(), opts.parallelism, filePartitions(args, cmd.InOrStdin()), accOpts...)
			if err != nil {
				return err
			}
			result, err := acc.Result()
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result)
		},
	}
}
