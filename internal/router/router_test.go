package router

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LJTian/topicfeed/internal/classify"
	"github.com/LJTian/topicfeed/internal/collector"
	"github.com/LJTian/topicfeed/internal/config"
	"github.com/LJTian/topicfeed/internal/fetch"
)

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in   string
		want Category
	}{
		{"US Political News", USPolitical},
		{"us-political", USPolitical},
		{"  local funny stories (columbiana, trumbull, mahoning counties) ", LocalFunny},
		{"CRIMINAL-OHIO", CriminalOhio},
		{"Funny Criminal Stories (Columbiana, Mahoning, Trumbull Counties)", CriminalLocal},
		{"Sports", Unknown},
		{"", Unknown},
		{"unknown", Unknown},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Parse(c.in), "Parse(%q)", c.in)
	}
}

func TestAllCategoriesRoundTrip(t *testing.T) {
	all := All()
	require.Len(t, all, 8)
	for _, c := range all {
		assert.Equal(t, c, Parse(c.Label()))
		assert.Equal(t, c, Parse(c.Slug()))
	}
	assert.Equal(t, "unknown", Category(42).Slug())
}

func TestTableShapes(t *testing.T) {
	table := NewTable(config.Default().Sources)

	kinds := func(calls []Call) []CallKind {
		var out []CallKind
		for _, c := range calls {
			out = append(out, c.Kind)
		}
		return out
	}

	us := table.Route(USPolitical)
	assert.Equal(t, []CallKind{FeedCall, FeedCall, SiteCall, SiteCall, SiteCall}, kinds(us))
	assert.Equal(t, "politics", us[0].Feed)
	assert.Equal(t, "news", us[2].Profile.Name)

	ohio := table.Route(OhioPolitical)
	require.Len(t, ohio, 4)
	assert.Equal(t, "gov_news", ohio[1].Profile.Name)

	local := table.Route(LocalOhio)
	require.Len(t, local, 7)
	assert.Equal(t, FeedCall, local[3].Kind)
	assert.Equal(t, "youngstown", local[3].Feed)
	assert.Equal(t, "government", local[6].Profile.Name)

	funny := table.Route(LocalFunny)
	require.Len(t, funny, 8)
	assert.Equal(t, SyntheticCall, funny[0].Kind)
	assert.Equal(t, LocalPolice, funny[0].Synthetic)
	for _, c := range funny[1:] {
		assert.Equal(t, classify.Funny, c.Filter, c.String())
	}

	crime := table.Route(CriminalLocal)
	require.Len(t, crime, 8)
	assert.Equal(t, classify.Crime, crime[7].Filter)

	ohioCrime := table.Route(CriminalOhio)
	assert.Equal(t, []CallKind{SiteCall, SiteCall, SyntheticCall}, kinds(ohioCrime))
	assert.Equal(t, OhioPolice, ohioCrime[2].Synthetic)

	assert.Equal(t, []CallKind{FeedCall, FeedCall, SiteCall, SiteCall}, kinds(table.Route(CriminalNational)))
	assert.Len(t, table.Route(FunnyNational), 6)

	// 基础路由本身不带过滤
	for _, c := range table.Route(LocalOhio) {
		assert.Equal(t, classify.None, c.Filter)
	}
}

func TestRouteUnknownAndCopy(t *testing.T) {
	table := NewTable(config.Default().Sources)
	assert.Empty(t, table.Route(Unknown))
	assert.Empty(t, table.Route(Category(99)))

	calls := table.Route(USPolitical)
	calls[0].Feed = "mutated"
	assert.Equal(t, "politics", table.Route(USPolitical)[0].Feed)
}

func TestFactoryBuildsSources(t *testing.T) {
	cfg := config.Default()
	f := &Factory{
		Client:  fetch.New(fetch.DefaultPolicy(), nil),
		Sources: cfg.Sources,
		Now:     func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) },
	}

	src, err := f.Source(Call{Kind: FeedCall, Feed: "ohio", URL: cfg.Sources.Feeds["ohio"]})
	require.NoError(t, err)
	assert.IsType(t, &collector.RedditSource{}, src)
	assert.Equal(t, "reddit_ohio", src.Name())

	src, err = f.Source(Call{Kind: SiteCall, URL: "https://www.wfmj.com", Profile: collector.NewsProfile})
	require.NoError(t, err)
	assert.Equal(t, "www.wfmj.com", src.Name())

	_, err = f.Source(Call{Kind: FeedCall, Feed: "missing"})
	assert.Error(t, err)

	_, err = f.Source(Call{Kind: SyntheticCall, Synthetic: "nope"})
	assert.Error(t, err)
}

func TestFactoryAppliesFilter(t *testing.T) {
	cfg := config.Default()
	f := &Factory{Sources: cfg.Sources, Classifier: classify.New(nil, nil)}

	src, err := f.Source(Call{Kind: SyntheticCall, Synthetic: LocalPolice, Filter: classify.Crime})
	require.NoError(t, err)
	assert.Equal(t, "local_police|crime", src.Name())

	topics, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, topics, 2)
	for _, tp := range topics {
		assert.Contains(t, tp.Title(), "arrested")
	}

	plain, err := f.Source(Call{Kind: SyntheticCall, Synthetic: OhioPolice})
	require.NoError(t, err)
	all, err := plain.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 5)
}
