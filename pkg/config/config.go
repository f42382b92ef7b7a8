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

package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"sigs.k8s.io/yaml"
)

// Config describes the receiver and sender settings. It is persisted
// as a YAML file under the user home directory.
type Config struct {
	// IP is the address the stream and API servers bind to
	IP         string `json:"ip,omitempty"`
	StreamPort int    `json:"streamPort,omitempty"`
	ApiPort    int    `json:"apiPort,omitempty"`
	LogLevel   string `json:"logLevel,omitempty"`
	// FramesDir is where assembled frames are persisted when recording
	FramesDir string `json:"framesDir,omitempty"`
	// MaxFrameAgeMillis is how long an incomplete frame may wait for its
	// missing fragments before it is evicted
	MaxFrameAgeMillis int `json:"maxFrameAgeMillis,omitempty"`
	// MaxLiveFrames bounds the number of partially assembled frames
	MaxLiveFrames int `json:"maxLiveFrames,omitempty"`
	// EvictIntervalMillis is how often the eviction pass runs
	EvictIntervalMillis int `json:"evictIntervalMillis,omitempty"`

	filepath string
}

func (c *Config) MaxFrameAge() time.Duration {
	return time.Duration(c.MaxFrameAgeMillis) * time.Millisecond
}

func (c *Config) EvictInterval() time.Duration {
	return time.Duration(c.EvictIntervalMillis) * time.Millisecond
}

// StateDBPath returns the path of the bbolt database where stream
// statistics are kept
func (c *Config) StateDBPath() string {
	return filepath.Join(filepath.Dir(c.filepath), StateDBFile)
}

func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(&c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	err = ioutil.WriteFile(c.filepath, data, 0644)
	if err != nil {
		return err
	}

	return nil
}

// Load reads the config file if it exists. A missing file is not an
// error, the defaults stay in place.
func (c *Config) Load() error {
	data, err := ioutil.ReadFile(c.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, ConfigFile)
}

func NewDefaultConfig() *Config {
	return &Config{
		IP:                  DefaultIP,
		StreamPort:          DefaultStreamPort,
		ApiPort:             DefaultApiPort,
		LogLevel:            DefaultLogLevel,
		MaxFrameAgeMillis:   DefaultMaxFrameAgeMillis,
		MaxLiveFrames:       DefaultMaxLiveFrames,
		EvictIntervalMillis: DefaultEvictIntervalMillis,
		filepath:            DefaultConfigPath(),
	}
}
