/*
Copyright 2025 The Kubernetes Authors.

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

// Package types defines the value types of the diverter task sequencing core.
//
// The central value is the `Task`: one pending actuation for one parcel at one position index. Tasks are values;
// every mutation produces a new `Task` through one of the copy-and-update methods, and the queue installs the new
// value. No component holds a reference through which a stored task could be changed in place.
package types
