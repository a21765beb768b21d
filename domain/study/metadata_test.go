package study

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gostudy/domain/core"
)

func sampleMetadata(t *testing.T) *Metadata {
	t.Helper()
	md, err := NewMetadataFromRecords([]string{"SampleID", "Subject", "Site", "Description"}, [][]string{
		{"s1", "A", "gut", "x"},
		{"s2", "A", "gut", "x"},
		{"s3", "B", "gut", "x"},
		{"s4", "B", "skin", "x"},
	})
	require.NoError(t, err)
	return md
}

func TestMetadata_Lookup(t *testing.T) {
	md := sampleMetadata(t)

	assert.Equal(t, 4, md.Len())
	assert.True(t, md.HasColumn("Site"))
	assert.False(t, md.HasColumn("SampleID"))

	v, err := md.Category("s4", "Site")
	require.NoError(t, err)
	assert.Equal(t, "skin", v)

	_, err = md.Category("s9", "Site")
	assert.ErrorIs(t, err, core.ErrUnknownID)
	_, err = md.Category("s1", "Diet")
	assert.ErrorIs(t, err, core.ErrUnknownCategory)
}

func TestNewMetadata_Rejects(t *testing.T) {
	_, err := NewMetadata(nil, nil)
	assert.Error(t, err)

	_, err = NewMetadataFromRecords([]string{"SampleID", "Subject"}, [][]string{{"s1", "A"}, {"s1", "B"}})
	assert.Error(t, err)

	_, err = NewMetadataFromRecords([]string{"SampleID", "Subject"}, [][]string{{"s1"}})
	assert.Error(t, err)

	_, err = NewMetadata([]string{"SampleID", "Subject"}, []Row{{SampleID: "s1", Fields: map[string]string{}}})
	assert.Error(t, err)

	_, err = NewMetadata([]string{"SampleID"}, []Row{{SampleID: " "}})
	assert.Error(t, err)
}

func TestMetadata_FilterDropsConstantColumns(t *testing.T) {
	md := sampleMetadata(t)

	kept := md.Filter(func(id string) bool { return id == "s3" || id == "s4" })
	assert.Equal(t, []string{"SampleID", "Site", "Description"}, kept.Headers())
	assert.Equal(t, 2, kept.Len())
	assert.Equal(t, "s3", kept.Rows()[0].SampleID)

	_, err := kept.Category("s3", "Subject")
	assert.ErrorIs(t, err, core.ErrUnknownCategory)
}
