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

// Messages rendered on the status page for each classification outcome.
const (
	// MessageAllRunning reports a server with every watched service running.
	MessageAllRunning = "ALL SERVICES ARE RUNNING"
	// MessageAllEnabledRunning reports a server where at least one service
	// is administratively disabled and the remaining services are healthy.
	MessageAllEnabledRunning = "ALL ENABLED SERVICES ARE RUNNING"
	// MessageServicesDown reports a server with stopped services.
	MessageServicesDown = "ONE OR MORE SERVICES APPEAR TO BE DOWN!"
	// MessageWaitingToStart reports stopped services on a session manager,
	// where services are started on demand. The status is still Bad.
	MessageWaitingToStart = "ALL SERVICES ARE RUNNING OR WAITING TO BE STARTED"
	// MessageFetchFailed is the fixed verdict message for a server whose
	// service inventory could not be queried at all.
	MessageFetchFailed = "UNABLE TO QUERY SERVICES ON THIS SERVER!"
)

// rule pairs a predicate over a server's observation set with the outcome
// it assigns.
type rule struct {
	matches func(role Role, observations []Observation) bool
	status  Status
	message string
}

// rules is the classification policy.
//
// Rules are evaluated in order and every matching rule overwrites the
// result, so the last match wins. The order is load-bearing: a session
// manager with stopped services matches both the stopped rule and the
// softer session manager rule, and must end up with the latter's wording.
// Do not reorder or collapse this into a first-match chain.
var rules = []rule{
	{
		matches: func(_ Role, observations []Observation) bool {
			return anyDisabled(observations)
		},
		status:  StatusGood,
		message: MessageAllEnabledRunning,
	},
	{
		matches: func(_ Role, observations []Observation) bool {
			return !anyDisabled(observations) && allRunning(observations)
		},
		status:  StatusGood,
		message: MessageAllRunning,
	},
	{
		matches: func(_ Role, observations []Observation) bool {
			return anyStopped(observations) && !anyDisabled(observations)
		},
		status:  StatusBad,
		message: MessageServicesDown,
	},
	{
		matches: func(role Role, observations []Observation) bool {
			return anyStopped(observations) && !anyDisabled(observations) &&
				role == RoleSessionManager
		},
		status:  StatusBad,
		message: MessageWaitingToStart,
	},
}

// Classify computes the health verdict for a single server from its
// observation set. The caller is expected to have queried the server
// successfully: a failed inventory query maps to FetchFailed instead
// and never reaches this function.
//
// Classify is a pure function of its input: no side effects, identical
// output for identical input.
func Classify(server string, role Role, observations []Observation) Verdict {
	verdict := Verdict{
		Server: server,
		// Transitional run states (e.g. Start Pending) match no rule and
		// fall through as healthy: the policy only reacts to Stopped and
		// Disabled.
		Status:  StatusGood,
		Message: MessageAllRunning,
	}
	for _, rule := range rules {
		if rule.matches(role, observations) {
			verdict.Status = rule.status
			verdict.Message = rule.message
		}
	}
	return verdict
}

// FetchFailed returns the fixed verdict for a server whose inventory
// query failed outright.
func FetchFailed(server string) Verdict {
	return Verdict{
		Server:  server,
		Status:  StatusBad,
		Message: MessageFetchFailed,
	}
}

func anyDisabled(observations []Observation) bool {
	for _, observation := range observations {
		if observation.StartMode == StartModeDisabled {
			return true
		}
	}
	return false
}

func anyStopped(observations []Observation) bool {
	for _, observation := range observations {
		if observation.State == RunStateStopped {
			return true
		}
	}
	return false
}

func allRunning(observations []Observation) bool {
	for _, observation := range observations {
		if observation.State != RunStateRunning {
			return false
		}
	}
	return len(observations) != 0
}
