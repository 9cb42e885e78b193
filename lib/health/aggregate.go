/*
Copyright 2023 Gravitational, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package health

// Aggregate combines individual server verdicts into the status of the
// fleet as a whole: a single unhealthy server marks the fleet unhealthy.
// There is no weighting or quorum, and the result does not depend on the
// order of the verdicts.
func Aggregate(verdicts []Verdict) Status {
	for _, verdict := range verdicts {
		if verdict.Status == StatusBad {
			return StatusBad
		}
	}
	return StatusGood
}
