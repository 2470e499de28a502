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

package runner

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/manager"
	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/metrics"
	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/types"
	"github.com/Hisoka6602/ZakYip.WheelDiverterSorter-sub002/pkg/sorter/util/logging"
)

func init() {
	metrics.Register()
}

func newPopulatedManager(t *testing.T) *manager.QueueManager {
	t.Helper()
	mgr := manager.NewQueueManager(logging.NewTestLogger())
	created := time.Now()
	for i, position := range []int{3, 3, 7} {
		require.NoError(t, mgr.EnqueueTask(types.Task{
			ParcelID:            int64(100 + i),
			PositionIndex:       position,
			DiverterAction:      types.DiverterActionLeft,
			CreatedAt:           created,
			ExpectedArrivalTime: created.Add(time.Second),
		}))
	}
	return mgr
}

func get(t *testing.T, srv *httptest.Server, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestHandler(t *testing.T) {
	mgr := newPopulatedManager(t)
	srv := httptest.NewServer(newHandler(mgr, logging.NewTestLogger()))
	t.Cleanup(srv.Close)

	t.Run("Healthz", func(t *testing.T) {
		code, body := get(t, srv, "/healthz")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", body)
	})

	t.Run("Statusz", func(t *testing.T) {
		code, body := get(t, srv, "/statusz")
		require.Equal(t, http.StatusOK, code)

		var statuses map[int]types.QueueStatus
		require.NoError(t, json.Unmarshal([]byte(body), &statuses))
		require.Len(t, statuses, 2)
		assert.Equal(t, 2, statuses[3].TaskCount)
		require.NotNil(t, statuses[3].HeadTask)
		assert.Equal(t, int64(100), statuses[3].HeadTask.ParcelID)
		assert.Equal(t, types.DiverterActionLeft, statuses[3].HeadTask.DiverterAction)
		assert.Equal(t, 1, statuses[7].TaskCount)
		assert.Contains(t, body, `"Left"`, "actions are reported by name")
	})

	t.Run("StatuszRejectsPost", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/statusz", "application/json", strings.NewReader("{}"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})

	t.Run("MetricsAfterReport", func(t *testing.T) {
		reportStatuses(logging.NewTestLogger(), mgr)
		code, body := get(t, srv, "/metrics")
		require.Equal(t, http.StatusOK, code)
		assert.Contains(t, body, `sorter_queue_tasks{position="3"} 2`)
		assert.Contains(t, body, `sorter_queue_tasks{position="7"} 1`)
	})
}

func TestRunner_InvalidFlags(t *testing.T) {
	err := NewRunner().WithArgs([]string{"--interval-min-samples", "0"}).Run(t.Context())
	assert.Error(t, err)
}
