package metrics_test

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/invoicer/internal/metrics"
)

func TestObserveLogin(t *testing.T) {
	success := metrics.LoginsTotal.WithLabelValues("password", "success")
	failure := metrics.LoginsTotal.WithLabelValues("password", "failure")

	beforeOK := testutil.ToFloat64(success)
	beforeFail := testutil.ToFloat64(failure)

	metrics.ObserveLogin("password", nil)
	metrics.ObserveLogin("password", errors.New("bad password"))
	metrics.ObserveLogin("password", errors.New("bad password"))

	assert.Equal(t, beforeOK+1, testutil.ToFloat64(success))
	assert.Equal(t, beforeFail+2, testutil.ToFloat64(failure))
}
