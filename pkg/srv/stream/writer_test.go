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
	"bytes"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/visionrt/go-vstream/pkg/frame"
)

func TestFrameWriterWritesNumberedFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewFrameWriter(dir, "cam1")
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	data := []byte{0xff, 0xd8, 0x01, 0x02}
	if err := w.WriteFrame(&frame.AssembledFrame{FrameNum: 7, Data: data}); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	got, err := ioutil.ReadFile(filepath.Join(dir, "cam1_frame_00000007.jpg"))
	if err != nil {
		t.Fatalf("read written frame: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("written bytes differ: % x", got)
	}
}

func TestFrameWriterNoPrefix(t *testing.T) {
	dir := t.TempDir()
	w, err := NewFrameWriter(dir, "")
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.WriteFrame(&frame.AssembledFrame{FrameNum: 1, Data: []byte{0xff}}); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	if _, err := ioutil.ReadFile(filepath.Join(dir, "frame_00000001.jpg")); err != nil {
		t.Fatalf("read written frame: %v", err)
	}
}
