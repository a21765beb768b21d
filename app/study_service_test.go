package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gostudy/adapters/rng"
	"gostudy/domain/abundance"
	"gostudy/domain/distance"
	"gostudy/domain/ordination"
	"gostudy/internal/config"
	apperrors "gostudy/internal/errors"
	"gostudy/internal/testkit"
)

func testConfig() config.Config {
	return config.Config{
		Study:       config.StudyConfig{Seed: 42, SubjectColumn: testkit.SubjectColumn},
		Rarefaction: config.RarefactionConfig{Steps: 4, Iterations: 2},
		Cloud:       config.CloudConfig{Axes: 2, Iterations: 3, Workers: 2, Timeout: time.Second},
		Log:         config.LogConfig{Level: "info"},
	}
}

type fixedDistance struct {
	dm  *distance.Matrix
	err error
}

func (f fixedDistance) BetaDistance(ctx context.Context, table *abundance.Table, req ordination.Request) (*distance.Matrix, error) {
	return f.dm, f.err
}

func syntheticStudy(t *testing.T) *testkit.Study {
	t.Helper()
	s, err := testkit.GenerateStudy(testkit.DefaultSyntheticConfig())
	require.NoError(t, err)
	return s
}

func TestStudyService_SelectIsBalancedAndReproducible(t *testing.T) {
	svc := NewStudyService(testConfig(), rng.NewStreamAdapter(), nil, nil, nil)
	st := syntheticStudy(t)
	req := SelectRequest{Metadata: st.Metadata, Table: st.Table, Depth: 150, Subjects: 3, SamplesPerSubject: 2}

	first, err := svc.Select(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Select(context.Background(), req)
	require.NoError(t, err)

	assert.Len(t, first.ChosenIDs, 6)
	assert.Equal(t, first.ChosenIDs, second.ChosenIDs)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.ElementsMatch(t, first.ChosenIDs, first.Table.SampleIDs())

	perSubject := map[string]int{}
	for _, id := range first.ChosenIDs {
		subject, err := st.Metadata.Category(id, testkit.SubjectColumn)
		require.NoError(t, err)
		perSubject[subject]++
	}
	assert.Len(t, perSubject, 3)
	for subject, n := range perSubject {
		assert.Equal(t, 2, n, subject)
	}
}

func TestStudyService_SelectErrorCodes(t *testing.T) {
	svc := NewStudyService(testConfig(), rng.NewStreamAdapter(), nil, nil, nil)
	st := syntheticStudy(t)

	_, err := svc.Select(context.Background(), SelectRequest{Metadata: st.Metadata, Table: st.Table, Depth: 0, Subjects: 1, SamplesPerSubject: 1})
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))

	_, err = svc.Select(context.Background(), SelectRequest{Metadata: st.Metadata, Table: st.Table, Depth: 150, Subjects: 1, SamplesPerSubject: 50})
	assert.Equal(t, apperrors.CodeInsufficientData, apperrors.GetCode(err))
}

func TestStudyService_RarefyUsesConfiguredDefaults(t *testing.T) {
	svc := NewStudyService(testConfig(), rng.NewStreamAdapter(), nil, nil, nil)

	res, err := svc.Rarefy(context.Background(), RarefyRequest{Table: testkit.WorkedTable(), MinDepth: 100, MaxDepth: 500})
	require.NoError(t, err)

	// steps 4 over [100, 500] gives 100, 200, 300, 400, 500
	assert.Len(t, res.Series, 10)
	assert.Equal(t, 500, res.Series[9].Depth)
}

func TestStudyService_Alpha(t *testing.T) {
	svc := NewStudyService(testConfig(), rng.NewStreamAdapter(), nil, nil, nil)

	res, err := svc.Alpha(context.Background(), AlphaRequest{Table: testkit.WorkedTable(), MaxDepth: 200})
	require.NoError(t, err)

	c := res.Collations["observed_features"]
	require.NotNil(t, c)
	assert.Len(t, c.Rows, 10)
	require.Len(t, c.Means, 5)
	assert.Equal(t, 50, c.Means[0].Depth)
	assert.Equal(t, testkit.WorkedSampleIDs, c.SampleIDs)
}

func TestStudyService_Cloud(t *testing.T) {
	svc := NewStudyService(testConfig(), rng.NewStreamAdapter(), testkit.ProfileOrdination{Axes: 2}, nil, nil)
	st := syntheticStudy(t)

	keepOnly := st.Metadata.Filter(func(id string) bool { return id == "subject_01.t1" || id == "subject_02.t1" })

	res, err := svc.Cloud(context.Background(), CloudRequest{
		Table:      st.Table,
		Metadata:   keepOnly,
		Depth:      150,
		Ordination: ordination.Request{Metric: "bray_curtis"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Iterations)
	assert.Empty(t, res.Skipped)
	require.Len(t, res.Ellipsoids, 2)
	assert.Len(t, res.Ellipsoids["subject_01.t1"].Center, 2)
}

func TestStudyService_CloudRequiresOrdinator(t *testing.T) {
	svc := NewStudyService(testConfig(), rng.NewStreamAdapter(), nil, nil, nil)
	_, err := svc.Cloud(context.Background(), CloudRequest{Table: testkit.WorkedTable(), Depth: 100})
	assert.Equal(t, apperrors.CodeInternalError, apperrors.GetCode(err))
}

func TestStudyService_CompareWorkedExample(t *testing.T) {
	svc := NewStudyService(testConfig(), rng.NewStreamAdapter(), nil, fixedDistance{dm: testkit.WorkedDistanceMatrix()}, nil)

	res, err := svc.Compare(context.Background(), CompareRequest{
		Metadata:  testkit.WorkedMetadata(),
		Table:     testkit.WorkedTable(),
		ChosenIDs: []string{"a1", "a2", "c1", "d1", "d2", "d3"},
		Category:  "Diet",
	})
	require.NoError(t, err)

	stats := res.Statistics
	assert.Equal(t, []string{"LF", "HF"}, stats.Groups)
	assert.InDelta(t, 0.11071343, stats.Within(0).Mean, 1e-8)
	assert.InDelta(t, 0.07019723, stats.Between(1, 0).Mean, 1e-8)
	assert.InDelta(t, 0.0724499, stats.ToAllStat(1).Mean, 1e-7)
}

func TestStudyService_CompareAllSamplesWithProfileDistance(t *testing.T) {
	svc := NewStudyService(testConfig(), rng.NewStreamAdapter(), nil, testkit.ProfileDistance{}, nil)

	res, err := svc.Compare(context.Background(), CompareRequest{
		Metadata: testkit.WorkedMetadata(),
		Table:    testkit.WorkedTable(),
		Category: "HSID",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, res.Statistics.Groups)
}

func TestStudyService_CompareDistanceFailure(t *testing.T) {
	boom := errors.New("distance backend unavailable")
	svc := NewStudyService(testConfig(), rng.NewStreamAdapter(), nil, fixedDistance{err: boom}, nil)

	_, err := svc.Compare(context.Background(), CompareRequest{Metadata: testkit.WorkedMetadata(), Table: testkit.WorkedTable(), Category: "Diet"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, apperrors.CodeExternalService, apperrors.GetCode(err))
}

func TestStudyService_Selectors(t *testing.T) {
	svc := NewStudyService(testConfig(), rng.NewStreamAdapter(), nil, nil, nil)

	res, err := svc.Selectors(context.Background(), SelectorsRequest{
		Metadata:      testkit.SoilMetadata(),
		Table:         testkit.SoilTable(),
		SubjectColumn: testkit.SoilSubjectColumn,
	})
	require.NoError(t, err)
	require.Len(t, res.Counts, 8)
	assert.Equal(t, "S4", res.Counts[0].SampleID)
	assert.Equal(t, 43.0, res.Summary.Max)
	rows := res.Selectors
	require.NotEmpty(t, rows)
	assert.Equal(t, 4, rows[0].Depth)
	assert.Equal(t, 3, rows[0].Subjects)
	assert.Equal(t, 2, rows[0].SamplesPerSubject)
	assert.Equal(t, []string{testkit.SoilSubjectColumn}, rows[0].Categories)
}

func TestStageRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := NewStageRunner(nil).Run(ctx, "run", "stage", func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
