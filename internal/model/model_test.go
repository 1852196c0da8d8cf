// SPDX-License-Identifier: MIT

package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitleID_JSONRoundTrip_Imdb(t *testing.T) {
	id := Imdb("tt1375666")

	data, err := json.Marshal(id)
	require.NoError(t, err)

	var decoded TitleID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)
	assert.Equal(t, "tt1375666", decoded.String())
}

func TestTitleID_JSONRoundTrip_Native(t *testing.T) {
	id := Native(3173903)

	data, err := json.Marshal(id)
	require.NoError(t, err)

	var decoded TitleID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)
	assert.Equal(t, "3173903", decoded.String())
}

func TestTitleID_ComparableAsMapKey(t *testing.T) {
	m := map[TitleID]int{}
	m[Imdb("tt1")] = 1
	m[Native(7)] = 2
	assert.Equal(t, 1, m[Imdb("tt1")])
	assert.Equal(t, 2, m[Native(7)])
	assert.NotEqual(t, Imdb("tt1"), Native(1))
}

func TestParseTitleType(t *testing.T) {
	assert.Equal(t, TitleTypeSeries, ParseTitleType("series"))
	assert.Equal(t, TitleTypeSeries, ParseTitleType("tv_series"))
	assert.Equal(t, TitleTypeMovie, ParseTitleType("movie"))
	assert.Equal(t, TitleTypeMovie, ParseTitleType("documentary"))
}

func TestCacheKey_TitleSearchIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, TitleSearchKey("Foo").String(), TitleSearchKey("foo").String())
	assert.Equal(t, "search:the matrix", TitleSearchKey("THE MATRIX").String())
}

func TestCacheKey_Availability(t *testing.T) {
	assert.Equal(t, "avail:tt1375666", AvailabilityKey("tt1375666").String())
	assert.Equal(t, "avail:3173903", AvailabilityKey("3173903").String())
}

func TestCacheKey_ImdbToNative(t *testing.T) {
	assert.Equal(t, "imdb2native:tt1375666", ImdbToNativeKey("tt1375666").String())
}

func TestTitle_JSONRoundTrip(t *testing.T) {
	year := 1999
	overview := "A hacker discovers reality is a simulation."
	title := Title{
		ID:          Imdb("tt0133093"),
		Title:       "The Matrix",
		TitleType:   TitleTypeMovie,
		ReleaseYear: &year,
		Overview:    &overview,
	}

	data, err := json.Marshal(title)
	require.NoError(t, err)

	var decoded Title
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, title, decoded)
}

func TestStreamingAvailability_SubscriptionServicesFiltersByType(t *testing.T) {
	avail := StreamingAvailability{
		ID: Imdb("tt1"),
		Services: []ServiceAvailability{
			{ServiceID: "netflix", AvailabilityType: AvailabilitySubscription},
			{ServiceID: "apple", AvailabilityType: AvailabilityBuy},
		},
	}
	subs := avail.SubscriptionServices()
	require.Len(t, subs, 1)
	assert.Equal(t, "netflix", subs[0].ServiceID)
}
