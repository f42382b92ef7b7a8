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

package receive

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/visionrt/go-vstream/pkg/config"
	"github.com/visionrt/go-vstream/pkg/srv/stream"
)

const (
	AddressOptionName   = "address"
	PortOptionName      = "port"
	FramesDirOptionName = "frames-dir"
)

// NewCommand creates a cobra command which runs the UDP stream receiver
func NewCommand() *cobra.Command {
	var address, framesDir string
	var port int
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "receive",
		Short: "Start the video stream receiver",
		RunE: func(cmd *cobra.Command, args []string) error {
			if address != "" {
				cfg.IP = address
			}
			if port != 0 {
				cfg.StreamPort = port
			}
			if framesDir != "" {
				cfg.FramesDir = framesDir
			}

			server, err := stream.NewStreamServer(context.Background(), cfg)
			if err != nil {
				return err
			}
			return server.Run()
		},
	}
	cmd.Flags().StringVar(&address, AddressOptionName, "", "Address to bind. E.g. 0.0.0.0")
	cmd.Flags().IntVar(&port, PortOptionName, 0, "Port number to bind. E.g. 5005")
	cmd.Flags().StringVar(&framesDir, FramesDirOptionName, "", "Directory to record assembled frames to from the start")

	return cmd
}
