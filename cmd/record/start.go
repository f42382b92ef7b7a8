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

package record

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/visionrt/go-vstream/pkg/command"
	"github.com/visionrt/go-vstream/pkg/config"
)

const (
	DirOptionName    = "dir"
	PrefixOptionName = "prefix"
)

// NewStartCommand creates a cobra command which starts frame recording
func NewStartCommand() *cobra.Command {
	var dir, prefix string
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start writing assembled frames to a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			if err := apiClient.Persist(dir, prefix); err != nil {
				fmt.Fprintln(os.Stderr, err.Error())
				return nil
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, DirOptionName, "", "Directory to write frames to")
	cmd.Flags().StringVar(&prefix, PrefixOptionName, "", "Filename prefix for recorded frames")
	cmd.MarkFlagRequired(DirOptionName)

	return cmd
}
