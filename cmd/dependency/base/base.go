/*
 *     Copyright 2024 The Codebucket Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package base

// Options are the options shared by all commands.
type Options struct {
	// Console prints logs to console instead of files.
	Console bool `yaml:"console" mapstructure:"console"`

	// Verbose enables debug logs and the pprof server.
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`

	// PProfPort is the port of pprof server, a free port is picked if zero.
	PProfPort int `yaml:"pprofPort" mapstructure:"pprofPort" validate:"gte=0,lte=65535"`

	// LogDir is the directory of log files.
	LogDir string `yaml:"logDir" mapstructure:"logDir"`
}
