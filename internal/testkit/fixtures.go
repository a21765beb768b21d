package testkit

import (
	"gostudy/domain/abundance"
	"gostudy/domain/distance"
	"gostudy/domain/study"
)

// WorkedSampleIDs are the thirteen samples of the worked diet example
var WorkedSampleIDs = []string{"a1", "a2", "a3", "b1", "b2", "b3", "c1", "c2", "c3", "c4", "d1", "d2", "d3"}

// workedDistances is the unweighted UniFrac matrix of the worked example table
var workedDistances = [][]float64{
	{0., 0.00071582, 0.00071582, 0.05726557, 0.05010737, 0.07158196, 0.16535433, 0.07874016, 0.07874016, 0.08231926, 0.10021475, 0.02219041, 0.00071582},
	{0.00071582, 0., 0., 0.05798139, 0.05082319, 0.07229778, 0.16607015, 0.07945598, 0.07945598, 0.08303508, 0.10093057, 0.02148997, 0.},
	{0.00071582, 0., 0., 0.05798139, 0.05082319, 0.07229778, 0.16607015, 0.07945598, 0.07945598, 0.08303508, 0.10093057, 0.02148997, 0.},
	{0.05726557, 0.05798139, 0.05798139, 0., 0.02243829, 0.04487659, 0.14285714, 0.13600573, 0.13600573, 0.13958482, 0.15748031, 0.07945598, 0.05798139},
	{0.05010737, 0.05082319, 0.05082319, 0.02243829, 0., 0.02260739, 0.1213263, 0.11535689, 0.11535689, 0.11896179, 0.1369863, 0.07229778, 0.05082319},
	{0.07158196, 0.07229778, 0.07229778, 0.04487659, 0.02260739, 0., 0.10100231, 0.1369863, 0.1369863, 0.1405912, 0.11790715, 0.05193855, 0.07229778},
	{0.16535433, 0.16607015, 0.16607015, 0.14285714, 0.1213263, 0.10100231, 0., 0.09401709, 0.09401709, 0.0979021, 0.07239459, 0.14776884, 0.16607015},
	{0.07874016, 0.07945598, 0.07945598, 0.13600573, 0.11535689, 0.1369863, 0.09401709, 0., 0., 0.003885, 0.02331002, 0.10093057, 0.07945598},
	{0.07874016, 0.07945598, 0.07945598, 0.13600573, 0.11535689, 0.1369863, 0.09401709, 0., 0., 0.003885, 0.02331002, 0.10093057, 0.07945598},
	{0.08231926, 0.08303508, 0.08303508, 0.13958482, 0.11896179, 0.1405912, 0.0979021, 0.003885, 0.003885, 0., 0.02719503, 0.10450966, 0.08303508},
	{0.10021475, 0.10093057, 0.10093057, 0.15748031, 0.1369863, 0.11790715, 0.07239459, 0.02331002, 0.02331002, 0.02719503, 0., 0.08119971, 0.10093057},
	{0.02219041, 0.02148997, 0.02148997, 0.07945598, 0.07229778, 0.05193855, 0.14776884, 0.10093057, 0.10093057, 0.10450966, 0.08119971, 0., 0.02148997},
	{0.00071582, 0., 0., 0.05798139, 0.05082319, 0.07229778, 0.16607015, 0.07945598, 0.07945598, 0.08303508, 0.10093057, 0.02148997, 0.},
}

// WorkedDistanceMatrix returns the 13x13 worked-example distance matrix
func WorkedDistanceMatrix() *distance.Matrix {
	dm, err := distance.NewMatrix(WorkedSampleIDs, workedDistances)
	if err != nil {
		panic(err)
	}
	return dm
}

// WorkedMetadata returns the worked example's Diet/HSID/Pref mapping
func WorkedMetadata() *study.Metadata {
	records := [][]string{
		{"a1", "LF", "a", "1"},
		{"a2", "LF", "a", "1"},
		{"a3", "HF", "a", "1"},
		{"b1", "HF", "b", "4"},
		{"b2", "HF", "b", "5"},
		{"b3", "HF", "b", "5"},
		{"c1", "LF", "c", "5"},
		{"c2", "LF", "c", "5"},
		{"c3", "LF", "c", "5"},
		{"c4", "LF", "d", "2"},
		{"d1", "HF", "d", "2"},
		{"d2", "HF", "d", "1"},
		{"d3", "HF", "d", "1"},
	}
	md, err := study.NewMetadataFromRecords([]string{"SampleID", "Diet", "HSID", "Pref"}, records)
	if err != nil {
		panic(err)
	}
	return md
}

// WorkedTable returns the worked example's 8-feature x 13-sample table
func WorkedTable() *abundance.Table {
	features := []string{"O1", "O2", "O3", "O4", "O5", "O6", "O7", "O8"}
	data := []abundance.Triplet{
		{Feature: 0, Sample: 0, Count: 100}, {Feature: 0, Sample: 1, Count: 12}, {Feature: 0, Sample: 2, Count: 45}, {Feature: 0, Sample: 7, Count: 24}, {Feature: 0, Sample: 8, Count: 67}, {Feature: 0, Sample: 9, Count: 132}, {Feature: 0, Sample: 10, Count: 991}, {Feature: 0, Sample: 11, Count: 21}, {Feature: 0, Sample: 12, Count: 5},
		{Feature: 1, Sample: 0, Count: 54}, {Feature: 1, Sample: 1, Count: 989}, {Feature: 1, Sample: 2, Count: 200}, {Feature: 1, Sample: 3, Count: 425}, {Feature: 1, Sample: 4, Count: 2}, {Feature: 1, Sample: 5, Count: 4}, {Feature: 1, Sample: 11, Count: 52}, {Feature: 1, Sample: 12, Count: 13},
		{Feature: 2, Sample: 0, Count: 4}, {Feature: 2, Sample: 3, Count: 11}, {Feature: 2, Sample: 4, Count: 11}, {Feature: 2, Sample: 5, Count: 100}, {Feature: 2, Sample: 6, Count: 491}, {Feature: 2, Sample: 7, Count: 55}, {Feature: 2, Sample: 8, Count: 98}, {Feature: 2, Sample: 9, Count: 54}, {Feature: 2, Sample: 10, Count: 104},
		{Feature: 3, Sample: 0, Count: 45}, {Feature: 3, Sample: 1, Count: 78}, {Feature: 3, Sample: 2, Count: 52}, {Feature: 3, Sample: 3, Count: 14}, {Feature: 3, Sample: 11, Count: 1000}, {Feature: 3, Sample: 12, Count: 141},
		{Feature: 4, Sample: 0, Count: 92}, {Feature: 4, Sample: 1, Count: 46}, {Feature: 4, Sample: 2, Count: 49}, {Feature: 4, Sample: 3, Count: 770}, {Feature: 4, Sample: 4, Count: 14}, {Feature: 4, Sample: 7, Count: 1}, {Feature: 4, Sample: 8, Count: 55}, {Feature: 4, Sample: 9, Count: 255}, {Feature: 4, Sample: 12, Count: 14},
		{Feature: 5, Sample: 0, Count: 67}, {Feature: 5, Sample: 1, Count: 92}, {Feature: 5, Sample: 2, Count: 800}, {Feature: 5, Sample: 4, Count: 13}, {Feature: 5, Sample: 5, Count: 17}, {Feature: 5, Sample: 6, Count: 29}, {Feature: 5, Sample: 7, Count: 27}, {Feature: 5, Sample: 8, Count: 25}, {Feature: 5, Sample: 9, Count: 221}, {Feature: 5, Sample: 10, Count: 228}, {Feature: 5, Sample: 11, Count: 9}, {Feature: 5, Sample: 12, Count: 9},
		{Feature: 6, Sample: 0, Count: 150}, {Feature: 6, Sample: 1, Count: 149}, {Feature: 6, Sample: 2, Count: 11}, {Feature: 6, Sample: 3, Count: 35}, {Feature: 6, Sample: 4, Count: 899}, {Feature: 6, Sample: 5, Count: 766}, {Feature: 6, Sample: 6, Count: 348}, {Feature: 6, Sample: 7, Count: 680}, {Feature: 6, Sample: 8, Count: 496}, {Feature: 6, Sample: 9, Count: 467}, {Feature: 6, Sample: 10, Count: 13}, {Feature: 6, Sample: 11, Count: 327}, {Feature: 6, Sample: 12, Count: 855},
		{Feature: 7, Sample: 0, Count: 300}, {Feature: 7, Sample: 1, Count: 45}, {Feature: 7, Sample: 2, Count: 78}, {Feature: 7, Sample: 3, Count: 22}, {Feature: 7, Sample: 4, Count: 361}, {Feature: 7, Sample: 5, Count: 271}, {Feature: 7, Sample: 6, Count: 531}, {Feature: 7, Sample: 7, Count: 256}, {Feature: 7, Sample: 8, Count: 251}, {Feature: 7, Sample: 10, Count: 70}, {Feature: 7, Sample: 11, Count: 250}, {Feature: 7, Sample: 12, Count: 31},
	}
	t, err := abundance.NewTable(features, WorkedSampleIDs, data)
	if err != nil {
		panic(err)
	}
	return t
}

// SoilSubjectColumn is the subject column of the soil selection fixture
const SoilSubjectColumn = "HOST_SUBJECT_ID"

// SoilMetadata returns the eight-sample, three-subject selection mapping
func SoilMetadata() *study.Metadata {
	records := [][]string{
		{"S1", "A", "candler fine sand"},
		{"S2", "A", "candler fine sand"},
		{"S3", "A", "candler fine sand"},
		{"S4", "B", "candler fine sand"},
		{"S5", "B", "candler fine sand"},
		{"S6", "B", "candler fine sand"},
		{"S7", "C", "candler fine sand"},
		{"S8", "C", "candler fine sand"},
	}
	md, err := study.NewMetadataFromRecords([]string{"SampleID", SoilSubjectColumn, "Description"}, records)
	if err != nil {
		panic(err)
	}
	return md
}

// SoilTable returns the 10-feature x 8-sample selection table. Column totals are
// S1 11, S2 26, S3 6, S4 4, S5 6, S6 15, S7 43, S8 37.
func SoilTable() *abundance.Table {
	features := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}
	samples := []string{"S1", "S2", "S3", "S4", "S5", "S6", "S7", "S8"}
	data := []abundance.Triplet{
		{Feature: 0, Sample: 6, Count: 14}, {Feature: 1, Sample: 3, Count: 1}, {Feature: 1, Sample: 7, Count: 5}, {Feature: 2, Sample: 4, Count: 1}, {Feature: 2, Sample: 6, Count: 4}, {Feature: 2, Sample: 7, Count: 4},
		{Feature: 4, Sample: 0, Count: 4}, {Feature: 4, Sample: 1, Count: 12}, {Feature: 4, Sample: 2, Count: 4}, {Feature: 4, Sample: 3, Count: 1}, {Feature: 4, Sample: 4, Count: 1}, {Feature: 4, Sample: 5, Count: 8}, {Feature: 4, Sample: 6, Count: 8}, {Feature: 4, Sample: 7, Count: 1},
		{Feature: 5, Sample: 1, Count: 11}, {Feature: 5, Sample: 2, Count: 2}, {Feature: 5, Sample: 3, Count: 2}, {Feature: 5, Sample: 4, Count: 1}, {Feature: 5, Sample: 5, Count: 4}, {Feature: 5, Sample: 6, Count: 8}, {Feature: 5, Sample: 7, Count: 22},
		{Feature: 6, Sample: 1, Count: 3}, {Feature: 6, Sample: 4, Count: 2}, {Feature: 6, Sample: 5, Count: 3}, {Feature: 6, Sample: 6, Count: 4}, {Feature: 6, Sample: 7, Count: 4},
		{Feature: 7, Sample: 0, Count: 2}, {Feature: 8, Sample: 0, Count: 5}, {Feature: 8, Sample: 4, Count: 1}, {Feature: 8, Sample: 6, Count: 4}, {Feature: 8, Sample: 7, Count: 1}, {Feature: 9, Sample: 6, Count: 1},
	}
	t, err := abundance.NewTable(features, samples, data)
	if err != nil {
		panic(err)
	}
	return t
}
