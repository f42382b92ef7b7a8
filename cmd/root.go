/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/visionrt/go-vstream/cmd/completion"
	"github.com/visionrt/go-vstream/cmd/config"
	"github.com/visionrt/go-vstream/cmd/receive"
	"github.com/visionrt/go-vstream/cmd/record"
	"github.com/visionrt/go-vstream/cmd/send"
	"github.com/visionrt/go-vstream/cmd/stats"
	pkgconfig "github.com/visionrt/go-vstream/pkg/config"
	"github.com/visionrt/go-vstream/pkg/log"
)

const (
	LogLevelOptionName = "log-level"
)

func NewRootCommand(out io.Writer) *cobra.Command {
	var logLevel string
	cfg := pkgconfig.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "go-vstream",
		Short: "Tool to receive and inspect fragmented JPEG video streams",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			log.Init(cmd.ErrOrStderr(), cfg.LogLevel)
		},
	}
	cmd.SetOut(out)
	cmd.AddCommand(config.NewCommand())
	cmd.AddCommand(receive.NewCommand())
	cmd.AddCommand(send.NewCommand())
	cmd.AddCommand(stats.NewCommand())
	cmd.AddCommand(record.NewCommand())
	cmd.AddCommand(completion.NewCommand())
	cmd.PersistentFlags().StringVar(&logLevel, LogLevelOptionName, "", fmt.Sprintf("Log level. %s", log.HelpLevels))
	return cmd
}
