package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"agri-advisor/internal/catalog"
)

func TestDetectIntentsFromKeywords(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []catalog.Category
	}{
		{
			name:    "weather and fertilizer",
			message: "What's the weather and which fertilizer for maize?",
			want:    []catalog.Category{catalog.CategoryWeather, catalog.CategoryFertilizer},
		},
		{
			name:    "case insensitive",
			message: "SOIL PH LEVEL in my FIELD",
			want:    []catalog.Category{catalog.CategorySoil},
		},
		{
			name:    "swahili",
			message: "Nitapata mvua lini? Na mbolea gani?",
			want:    []catalog.Category{catalog.CategoryWeather, catalog.CategoryFertilizer},
		},
		{
			name:    "amharic",
			message: "ለከብቶቼ ምን አይነት መኖ ልስጥ?",
			want:    []catalog.Category{catalog.CategoryFeed},
		},
		{
			name:    "climate and advisory",
			message: "Will the long rains be late this year, and when to plant beans?",
			want:    []catalog.Category{catalog.CategoryClimate, catalog.CategoryAdvisory},
		},
		{
			name:    "livestock",
			message: "Best dairy meal for my cows",
			want:    []catalog.Category{catalog.CategoryFeed},
		},
		{
			name:    "no match",
			message: "Hello, how are you today?",
			want:    []catalog.Category{},
		},
		{
			name:    "empty",
			message: "",
			want:    []catalog.Category{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectIntentsFromKeywords(tt.message)
			assert.Equal(t, tt.want, Categories(got))
		})
	}
}

func TestDetectIntentsFromKeywords_EmptyMapWhenNothingMatches(t *testing.T) {
	got := DetectIntentsFromKeywords("tell me a joke about computers")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestKeywordTable_CoversEveryIntentCategory(t *testing.T) {
	for _, c := range catalog.IntentCategories {
		assert.NotEmpty(t, keywordTable[c], "no keywords for %s", c)
	}
	assert.Empty(t, keywordTable[catalog.CategoryMarket])
	assert.Empty(t, keywordTable[catalog.CategoryCropHealth])
}

func TestCategoriesFromClassification(t *testing.T) {
	tests := []struct {
		name string
		in   *Classification
		want []catalog.Category
	}{
		{"nil", nil, []catalog.Category{}},
		{
			name: "weather intent",
			in:   &Classification{MainIntent: "Weather_Inquiry"},
			want: []catalog.Category{catalog.CategoryWeather},
		},
		{
			name: "seasonal",
			in:   &Classification{MainIntent: "seasonal_planning"},
			want: []catalog.Category{catalog.CategoryClimate},
		},
		{
			name: "soil by practice",
			in:   &Classification{MainIntent: "crop_question", Practices: []string{"soil_analysis"}},
			want: []catalog.Category{catalog.CategorySoil},
		},
		{
			name: "fertilizer by intent and practice",
			in:   &Classification{MainIntent: "fertilizer_recommendation", Practices: []string{"fertilization"}},
			want: []catalog.Category{catalog.CategoryFertilizer},
		},
		{
			name: "livestock present",
			in:   &Classification{MainIntent: "general", Livestock: []string{"goats"}},
			want: []catalog.Category{catalog.CategoryFeed},
		},
		{
			name: "nutrition practice",
			in:   &Classification{MainIntent: "general", Practices: []string{"animal_nutrition"}},
			want: []catalog.Category{catalog.CategoryFeed},
		},
		{
			name: "pest and harvest advisory",
			in:   &Classification{MainIntent: "pest_control", Practices: []string{"harvesting"}},
			want: []catalog.Category{catalog.CategoryAdvisory},
		},
		{
			name: "multiple rules",
			in: &Classification{
				MainIntent: "soil_and_weather",
				Practices:  []string{"fertilization", "growth_stage_monitoring"},
				Livestock:  []string{"cattle"},
			},
			want: []catalog.Category{
				catalog.CategoryWeather, catalog.CategorySoil, catalog.CategoryFertilizer,
				catalog.CategoryFeed, catalog.CategoryAdvisory,
			},
		},
		{
			name: "nothing applies",
			in:   &Classification{MainIntent: "greeting", Confidence: 0.9},
			want: []catalog.Category{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categories(CategoriesFromClassification(tt.in)))
		})
	}
}

func TestClassification_PrimaryValues(t *testing.T) {
	var nilCl *Classification
	assert.Empty(t, nilCl.PrimaryCrop())
	assert.Empty(t, nilCl.PrimaryLivestock())

	cl := &Classification{Crops: []string{"beans", "maize"}, Livestock: []string{"poultry"}}
	assert.Equal(t, "beans", cl.PrimaryCrop())
	assert.Equal(t, "poultry", cl.PrimaryLivestock())
}
