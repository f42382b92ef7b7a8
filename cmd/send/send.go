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

package send

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/visionrt/go-vstream/pkg/config"
	"github.com/visionrt/go-vstream/pkg/sender"
)

const (
	TargetOptionName = "target"
	DirOptionName    = "dir"
	FPSOptionName    = "fps"
	LoopOptionName   = "loop"
)

// NewCommand creates a cobra command which streams JPEG files to a receiver
func NewCommand() *cobra.Command {
	var target, dir string
	var fps int
	var loop bool
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Stream JPEG files from a directory to a receiver",
		RunE: func(cmd *cobra.Command, args []string) error {
			if target == "" {
				target = fmt.Sprintf("127.0.0.1:%d", cfg.StreamPort)
			}
			s, err := sender.NewSender(context.Background(), target, dir, fps, loop)
			if err != nil {
				return err
			}
			return s.Run()
		},
	}
	cmd.Flags().StringVar(&target, TargetOptionName, "", "Receiver address. E.g. 127.0.0.1:5005")
	cmd.Flags().StringVar(&dir, DirOptionName, ".", "Directory with JPEG files to stream")
	cmd.Flags().IntVar(&fps, FPSOptionName, 30, "Frames per second")
	cmd.Flags().BoolVar(&loop, LoopOptionName, true, "Restart from the first frame at the end of the sequence")

	return cmd
}
