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

package command

import (
	"errors"
	"fmt"

	"github.com/imroc/req"

	"github.com/visionrt/go-vstream/pkg/command/ifc"
	"github.com/visionrt/go-vstream/pkg/config"
	"github.com/visionrt/go-vstream/pkg/srv/stream"
)

type ApiClient struct {
	*config.Config
	ApiPrefix string
}

var _ ifc.ApiClient = &ApiClient{}

func NewApiClient(cfg *config.Config) ifc.ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: fmt.Sprintf("http://%s:%d/api", cfg.IP, cfg.ApiPort),
	}
}

func (c *ApiClient) statsUrl() string {
	return fmt.Sprintf("%s/stats", c.ApiPrefix)
}

func (c *ApiClient) persistUrl() string {
	return fmt.Sprintf("%s/persist", c.ApiPrefix)
}

func (c *ApiClient) flushUrl() string {
	return fmt.Sprintf("%s/flush", c.ApiPrefix)
}

// Stats fetches a snapshot of the stream counters from the receiver
func (c *ApiClient) Stats() (*stream.Stats, error) {
	r, err := req.Get(c.statsUrl())
	if err != nil {
		return nil, err
	}
	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}
	stats := &stream.Stats{}
	err = r.ToJSON(stats)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Persist asks the receiver to start writing assembled frames to a directory
func (c *ApiClient) Persist(dir, filePrefix string) error {
	persist := &stream.Persist{
		Dir:        dir,
		FilePrefix: filePrefix,
	}
	r, err := req.Post(c.persistUrl(), req.BodyJSON(persist))
	if err != nil {
		return err
	}
	if r.Response().StatusCode != 200 {
		return errors.New(r.Response().Status)
	}
	return nil
}

// Flush asks the receiver to stop writing assembled frames
func (c *ApiClient) Flush() error {
	r, err := req.Get(c.flushUrl())
	if err != nil {
		return err
	}
	if r.Response().StatusCode != 200 {
		return errors.New(r.Response().Status)
	}
	return nil
}
