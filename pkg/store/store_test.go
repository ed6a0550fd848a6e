package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/last-emo-boy/net-monitor/pkg/config"
	"github.com/last-emo-boy/net-monitor/pkg/model"
)

func newTestDB(t *testing.T) *DB {
	db, err := Open(&config.StoreConfig{Path: ":memory:", WALMode: true, MaxOpenConns: 5})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func httpNode(name string) *model.Node {
	return &model.Node{
		Name:                name,
		Detail:              model.ProbeDetail{Kind: model.KindHTTP, HTTP: &model.HTTPDetail{URL: "http://example.com", ExpectedStatus: 200}},
		Status:              model.StatusOnline,
		MonitoringIntervalS: 60,
		RetryIntervalS:      15,
		MaxCheckAttempts:    3,
	}
}

func TestOpenInMemory(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.HealthCheck())
}

func TestNodeAddGetUpdateDelete(t *testing.T) {
	db := newTestDB(t)
	repo := db.NodeRepo()

	n := httpNode("web-1")
	id, err := repo.Add(n)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	got, err := repo.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "web-1", got.Name)
	assert.Equal(t, model.KindHTTP, got.Detail.Kind)
	assert.Equal(t, "http://example.com", got.Detail.HTTP.URL)
	assert.Equal(t, 200, got.Detail.HTTP.ExpectedStatus)

	got.Name = "web-1-renamed"
	got.Status = model.StatusDegraded
	got.ConsecutiveFailures = 1
	require.NoError(t, repo.Update(&got))

	after, err := repo.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "web-1-renamed", after.Name)
	assert.Equal(t, model.StatusDegraded, after.Status)

	require.NoError(t, repo.Delete(id))
	_, err = repo.Get(id)
	assert.Error(t, err)
}

func TestNodeDeleteCascadesSamplesAndStatusChanges(t *testing.T) {
	db := newTestDB(t)
	nodes := db.NodeRepo()
	samples := db.SampleRepo()
	changes := db.StatusChangeRepo()

	n := httpNode("cascade")
	id, err := nodes.Add(n)
	require.NoError(t, err)

	_, err = samples.Add(&model.ProbeSample{NodeID: id, At: time.Now(), Status: model.StatusOnline})
	require.NoError(t, err)
	_, err = changes.Add(&model.StatusChange{NodeID: id, FromStatus: model.StatusOnline, ToStatus: model.StatusDegraded, ChangedAt: time.Now()})
	require.NoError(t, err)

	require.NoError(t, nodes.Delete(id))

	_, ok, err := samples.Latest(id)
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := changes.List(id, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNodeListOrdersByDisplayOrderThenName(t *testing.T) {
	db := newTestDB(t)
	repo := db.NodeRepo()

	b := httpNode("bravo")
	b.DisplayOrder = 2
	a := httpNode("alpha")
	a.DisplayOrder = 1
	zNoOrder := httpNode("zulu")

	idB, err := repo.Add(b)
	require.NoError(t, err)
	idA, err := repo.Add(a)
	require.NoError(t, err)
	idZ, err := repo.Add(zNoOrder)
	require.NoError(t, err)

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 3)

	// zulu has display_order 0 so it sorts by id (idZ), which in this
	// test is the largest id and thus sorts last among the three.
	ids := []int64{list[0].ID, list[1].ID, list[2].ID}
	assert.Equal(t, []int64{idA, idB, idZ}, ids)
}

func TestUpdateDisplayOrdersIsAtomic(t *testing.T) {
	db := newTestDB(t)
	repo := db.NodeRepo()

	id1, err := repo.Add(httpNode("one"))
	require.NoError(t, err)
	id2, err := repo.Add(httpNode("two"))
	require.NoError(t, err)

	err = repo.UpdateDisplayOrders([]DisplayOrderUpdate{
		{ID: id1, Order: 5},
		{ID: id2, Order: 1},
	})
	require.NoError(t, err)

	n1, err := repo.Get(id1)
	require.NoError(t, err)
	n2, err := repo.Get(id2)
	require.NoError(t, err)
	assert.Equal(t, 5, n1.DisplayOrder)
	assert.Equal(t, 1, n2.DisplayOrder)
}

func TestUnknownStatusStringMapsToOffline(t *testing.T) {
	db := newTestDB(t)
	repo := db.NodeRepo()

	id, err := repo.Add(httpNode("weird-status"))
	require.NoError(t, err)

	_, err = db.Exec("UPDATE nodes SET status = 'Bogus' WHERE id = ?", id)
	require.NoError(t, err)

	got, err := repo.Get(id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOffline, got.Status)
}

func TestSampleAddAndLatest(t *testing.T) {
	db := newTestDB(t)
	nodes := db.NodeRepo()
	samples := db.SampleRepo()

	id, err := nodes.Add(httpNode("sampled"))
	require.NoError(t, err)

	_, ok, err := samples.Latest(id)
	require.NoError(t, err)
	assert.False(t, ok)

	t1 := time.Now().Add(-time.Minute)
	latencyA := 12
	_, err = samples.Add(&model.ProbeSample{NodeID: id, At: t1, Status: model.StatusOnline, ResponseTimeMs: &latencyA})
	require.NoError(t, err)

	latencyB := 999
	detail := "timeout"
	t2 := time.Now()
	_, err = samples.Add(&model.ProbeSample{NodeID: id, At: t2, Status: model.StatusDegraded, ResponseTimeMs: &latencyB, Detail: &detail})
	require.NoError(t, err)

	latest, ok, err := samples.Latest(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.StatusDegraded, latest.Status)
	assert.Equal(t, "timeout", *latest.Detail)
}

func TestSampleListNewestFirstAndRespectsLimit(t *testing.T) {
	db := newTestDB(t)
	nodes := db.NodeRepo()
	samples := db.SampleRepo()

	id, err := nodes.Add(httpNode("sampled"))
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		_, err := samples.Add(&model.ProbeSample{NodeID: id, At: base.Add(time.Duration(i) * time.Minute), Status: model.StatusOnline})
		require.NoError(t, err)
	}

	all, err := samples.List(id, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].At.After(all[1].At))
	assert.True(t, all[1].At.After(all[2].At))

	limited, err := samples.List(id, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestStatusChangeAddAndList(t *testing.T) {
	db := newTestDB(t)
	nodes := db.NodeRepo()
	changes := db.StatusChangeRepo()

	id, err := nodes.Add(httpNode("changeful"))
	require.NoError(t, err)

	t1 := time.Now().Add(-2 * time.Minute)
	_, err = changes.Add(&model.StatusChange{NodeID: id, FromStatus: model.StatusOnline, ToStatus: model.StatusDegraded, ChangedAt: t1})
	require.NoError(t, err)

	duration := int64(45000)
	t2 := time.Now().Add(-time.Minute)
	_, err = changes.Add(&model.StatusChange{NodeID: id, FromStatus: model.StatusDegraded, ToStatus: model.StatusOffline, ChangedAt: t2, DurationMs: &duration})
	require.NoError(t, err)

	list, err := changes.List(id, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	// newest first
	assert.Equal(t, model.StatusOffline, list[0].ToStatus)
	assert.Equal(t, duration, *list[0].DurationMs)
	assert.Equal(t, model.StatusDegraded, list[1].ToStatus)
	assert.Nil(t, list[1].DurationMs)
}

func TestStatusChangeListRespectsLimit(t *testing.T) {
	db := newTestDB(t)
	nodes := db.NodeRepo()
	changes := db.StatusChangeRepo()

	id, err := nodes.Add(httpNode("limited"))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		from, to := model.StatusOnline, model.StatusDegraded
		if i%2 == 1 {
			from, to = model.StatusDegraded, model.StatusOnline
		}
		_, err := changes.Add(&model.StatusChange{NodeID: id, FromStatus: from, ToStatus: to, ChangedAt: time.Now().Add(time.Duration(i) * time.Second)})
		require.NoError(t, err)
	}

	list, err := changes.List(id, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCurrentStatusDurationFallsBackToFirstSample(t *testing.T) {
	db := newTestDB(t)
	nodes := db.NodeRepo()
	samples := db.SampleRepo()
	changes := db.StatusChangeRepo()

	id, err := nodes.Add(httpNode("duration-fallback"))
	require.NoError(t, err)

	dur, err := changes.CurrentStatusDuration(id, samples)
	require.NoError(t, err)
	assert.Nil(t, dur)

	firstSeen := time.Now().Add(-90 * time.Second)
	_, err = samples.Add(&model.ProbeSample{NodeID: id, At: firstSeen, Status: model.StatusOnline})
	require.NoError(t, err)

	dur, err = changes.CurrentStatusDuration(id, samples)
	require.NoError(t, err)
	require.NotNil(t, dur)
	assert.InDelta(t, 90000, *dur, 2000)
}

func TestCurrentStatusDurationUsesMostRecentTransition(t *testing.T) {
	db := newTestDB(t)
	nodes := db.NodeRepo()
	samples := db.SampleRepo()
	changes := db.StatusChangeRepo()

	id, err := nodes.Add(httpNode("duration-transition"))
	require.NoError(t, err)

	transitionedAt := time.Now().Add(-30 * time.Second)
	_, err = changes.Add(&model.StatusChange{NodeID: id, FromStatus: model.StatusOnline, ToStatus: model.StatusDegraded, ChangedAt: transitionedAt})
	require.NoError(t, err)

	dur, err := changes.CurrentStatusDuration(id, samples)
	require.NoError(t, err)
	require.NotNil(t, dur)
	assert.InDelta(t, 30000, *dur, 2000)
}

func TestUptimePercentageEmptyTimeline(t *testing.T) {
	db := newTestDB(t)
	nodes := db.NodeRepo()
	changes := db.StatusChangeRepo()

	id, err := nodes.Add(httpNode("no-history"))
	require.NoError(t, err)

	now := time.Now()
	pct, err := changes.UptimePercentage(id, now.Add(-time.Hour), now, model.StatusOnline)
	require.NoError(t, err)
	assert.Equal(t, 100.0, pct)

	pct, err = changes.UptimePercentage(id, now.Add(-time.Hour), now, model.StatusOffline)
	require.NoError(t, err)
	assert.Equal(t, 0.0, pct)
}

// TestUptimePercentageScenario5 checks a node Online from t0 to t0+80s,
// then Offline from t0+80 to t0+100s; uptime over [t0, t0+100] must be
// 80.0.
func TestUptimePercentageScenario5(t *testing.T) {
	db := newTestDB(t)
	nodes := db.NodeRepo()
	changes := db.StatusChangeRepo()

	id, err := nodes.Add(httpNode("uptime-e"))
	require.NoError(t, err)

	t0 := time.Now().Add(-200 * time.Second)
	_, err = changes.Add(&model.StatusChange{
		NodeID:     id,
		FromStatus: model.StatusOnline,
		ToStatus:   model.StatusOffline,
		ChangedAt:  t0.Add(80 * time.Second),
	})
	require.NoError(t, err)

	pct, err := changes.UptimePercentage(id, t0, t0.Add(100*time.Second), model.StatusOffline)
	require.NoError(t, err)
	assert.InDelta(t, 80.0, pct, 0.01)
}
