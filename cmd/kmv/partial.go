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
	"os"

	"github.com/apache/datasketches-kmv-go/aggregate"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newPartialCommand(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "partial --out FILE [files...]",
		Short: "Write the partial state of the distinct lines of files",
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
			partial, err := acc.ResultAsPartial()
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, partial, 0o644); err != nil {
				return err
			}
			logger.Info("Wrote partial state",
				zap.String("path", out),
				zap.Int("bytes", len(partial)),
				zap.Int("retained", acc.Sketch().NumRetained()))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Path of the partial state file to write.")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
