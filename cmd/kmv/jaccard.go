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

	"github.com/apache/datasketches-kmv-go/aggregate"
	"github.com/spf13/cobra"
)

func newJaccardCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "jaccard FILE_A FILE_B",
		Short: "Estimate the Jaccard similarity of the distinct lines of two files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, accOpts, err := opts.setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			accs := make([]*aggregate.Accumulator, len(args))
			for i, path := range args {
				acc, err := aggregate.RunPartitions(cmd.Context(), 1, filePartitions([]string{path}, cmd.InOrStdin()), accOpts...)
				if err != nil {
					return err
				}
				accs[i] = acc
			}
			similarity, err := accs[0].Jaccard(accs[1])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "jaccard:\t%.4f\n", similarity)
			return err
		},
	}
}
