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
	"fmt"
	"os"

	"github.com/apache/datasketches-kmv-go/aggregate"
	"github.com/spf13/cobra"
)

func newMergeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "merge partials...",
		Short: "Merge partial state files and print the estimate",
		Long: `Merge partial state files and print the estimate.
The merged sketch takes the capacity of the partial states, so --capacity is ignored.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, accOpts, err := opts.setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			acc, err := aggregate.NewAccumulator(accOpts...)
			if err != nil {
				return err
			}
			for _, path := range args {
				partial, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				if err := acc.ConsumeAsPartial(partial); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
			result, err := acc.Result()
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result)
		},
	}
}
