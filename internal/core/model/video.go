// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

import "regexp"

// videoIDPattern matches the 11 character id after "v=" (watch URLs) or
// after a capital "V" (some share links).
var videoIDPattern = regexp.MustCompile(`(?:v=|V)([0-9A-Za-z_-]{11})`)

// ExtractVideoID pulls the video id out of a video URL.
func ExtractVideoID(url string) (string, error) {
	m := videoIDPattern.FindStringSubmatch(url)
	if m == nil {
		return "", Errorf(KindInvalidInput, "extract-video-id", "invalid video url %q", url)
	}
	return m[1], nil
}
