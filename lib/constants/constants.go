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

package constants

const (
	// ComponentStatus identifies the status runner in log output
	ComponentStatus = "status"
	// ComponentMonitoring identifies the inventory collectors in log output
	ComponentMonitoring = "monitoring"
	// ComponentReport identifies the report renderer in log output
	ComponentReport = "report"
	// ComponentPublish identifies the report publisher in log output
	ComponentPublish = "publish"
	// ComponentAlert identifies the alert dispatcher in log output
	ComponentAlert = "alert"
	// ComponentMetrics identifies the metrics exporter in log output
	ComponentMetrics = "metrics"

	// EnvWinRMPassword names the environment variable that supplies
	// the password for the WinRM service account
	EnvWinRMPassword = "VAULTWATCH_WINRM_PASSWORD"
	// EnvSMTPPassword names the environment variable that supplies
	// the password for the alert SMTP account
	EnvSMTPPassword = "VAULTWATCH_SMTP_PASSWORD"

	// SourceWinRM selects the WinRM inventory source
	SourceWinRM = "winrm"
	// SourceWMI selects the native WMI inventory source
	SourceWMI = "wmi"

	// WMINamespace is the WMI namespace queried for service state
	WMINamespace = `root\cimv2`

	// ExitCodeUnknown is equivalent to EX_SOFTWARE as defined by sysexits(3)
	ExitCodeUnknown = 70

	// SharedReadMask is a file mask with read access for everyone
	SharedReadMask = 0644

	// SharedDirMask is a mask for shared directories
	SharedDirMask = 0755
)
