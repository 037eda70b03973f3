package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("/feedback", "POST", "303"))

	RecordHTTPRequest("/feedback", "POST", 303, 12*time.Millisecond)

	after := testutil.ToFloat64(HTTPRequests.WithLabelValues("/feedback", "POST", "303"))
	assert.Equal(t, before+1, after)
}
