// Copyright 2022 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Default build-time variable.
// These values are overridden via ldflags
var (
	Version   = "unknown-version"
	GitCommit = "unknown-commit"
	BuildTime = "unknown-buildtime"
)

// ArtifactVersion is the version of the matrix artifact format.
const ArtifactVersion = "1"

func BuildInfo() string {
	var buildInfo strings.Builder
	_, _ = fmt.Fprintln(&buildInfo, "Version:\t", Version)
	_, _ = fmt.Fprintln(&buildInfo, "Artifact version:", ArtifactVersion)
	_, _ = fmt.Fprintln(&buildInfo, "Go version:\t", runtime.Version())
	_, _ = fmt.Fprintln(&buildInfo, "Git commit:\t", GitCommit)
	_, _ = fmt.Fprintln(&buildInfo, "Built:\t\t", BuildTime)
	_, _ = fmt.Fprintf(&buildInfo, "OS/Arch:\t %s/%s\n", runtime.GOOS, runtime.GOARCH)
	return buildInfo.String()
}
