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

package stream

import (
	"fmt"
	"io/ioutil"
	"os"
	"path"

	"github.com/visionrt/go-vstream/pkg/frame"
	"github.com/visionrt/go-vstream/pkg/log"
)

// FrameWriter persists assembled frames as numbered JPEG files in a
// directory
type FrameWriter struct {
	dir    string
	prefix string
}

func NewFrameWriter(dir, prefix string) (*FrameWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Error("Error while creating frames directory: %s", dir)
		return nil, err
	}
	return &FrameWriter{
		dir:    dir,
		prefix: prefix,
	}, nil
}

func (w *FrameWriter) filename(frameNum uint32) string {
	name := fmt.Sprintf("frame_%08d.jpg", frameNum)
	if w.prefix != "" {
		name = fmt.Sprintf("%s_%s", w.prefix, name)
	}
	return path.Join(w.dir, name)
}

// WriteFrame writes one assembled frame to its own file
func (w *FrameWriter) WriteFrame(f *frame.AssembledFrame) error {
	return ioutil.WriteFile(w.filename(f.FrameNum), f.Data, 0644)
}
