package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LJTian/topicfeed/internal/classify"
	"github.com/LJTian/topicfeed/internal/fetch"
)

const newsPage = `<html><body>
<article>
  <h2>Senate passes sweeping infrastructure bill</h2>
  <a href="/politics/infra">Read</a>
  <time class="published" datetime="2024-03-01T10:00:00Z">March 1, 2024</time>
  <p>Lawmakers   voted late
     on Friday.</p>
  <script>var tracking = 1;</script>
</article>
<article>
  <h2>Senate passes sweeping infrastructure bill</h2>
  <a href="/politics/duplicate">Read</a>
</article>
<article><h3>Short</h3><a href="/short">s</a></article>
<article><h2>This article has no link anywhere</h2></article>
<div class="story-card">
  <h3>Governor signs new education funding law</h3>
  <a href="https://other.example.com/ed">go</a>
  <span class="date">01/15/2024</span>
</div>
<div class="story-card">
  <h3>County fair opens with record attendance</h3>
  <a href="fair">go</a>
</div>
</body></html>`

const weirdPage = `<html><body>
<div class="post"><h2>Bizarre goat parade shuts down main street</h2><a href="/goat">x</a></div>
<div class="post"><h2>City council approves budget for next year</h2><a href="/budget">x</a></div>
<div class="post"><h2>Weird: man tries to pay for pizza with a lobster</h2><a href="/lobster">x</a></div>
</body></html>`

const govPage = `<html><body>
<div class="news-item"><a href="/n/1">Governor announces new broadband grants</a><span class="date">2024-05-20</span></div>
<div class="news-item"><a href="/n/2">Short</a></div>
</body></html>`

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testClient(profiles ...string) *fetch.Client {
	if len(profiles) == 0 {
		profiles = []string{"test-agent"}
	}
	return fetch.New(fetch.DefaultPolicy(), fetch.UserAgentProfiles(profiles),
		fetch.WithSleep(func(context.Context, time.Duration) error { return nil }))
}

func servePage(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSiteSourceNewsProfile(t *testing.T) {
	srv := servePage(t, newsPage)
	src := &SiteSource{
		URL:     srv.URL + "/politics",
		Profile: NewsProfile,
		Client:  testClient(),
		Now:     func() time.Time { return testNow },
	}

	topics, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, topics, 3)

	first := topics[0]
	assert.Equal(t, "Senate passes sweeping infrastructure bill", first.Title())
	assert.Equal(t, srv.URL+"/politics/infra", first.URL())
	assert.Equal(t, src.Name(), first.Source())
	assert.True(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).Equal(first.Timestamp()))
	assert.Contains(t, first.Summary(), "Lawmakers voted late on Friday.")
	assert.NotContains(t, first.Summary(), "tracking")

	second := topics[1]
	assert.Equal(t, "Governor signs new education funding law", second.Title())
	assert.Equal(t, "https://other.example.com/ed", second.URL())
	assert.True(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC).Equal(second.Timestamp()))

	// 没有时间元素时取当前时间，相对链接按页面地址解析
	third := topics[2]
	assert.Equal(t, srv.URL+"/fair", third.URL())
	assert.True(t, testNow.Equal(third.Timestamp()))
}

func TestSiteSourceRespectsLimit(t *testing.T) {
	srv := servePage(t, newsPage)
	profile := NewsProfile
	profile.Limit = 1

	src := &SiteSource{URL: srv.URL, Profile: profile, Client: testClient(), Now: func() time.Time { return testNow }}
	topics, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, "Senate passes sweeping infrastructure bill", topics[0].Title())
}

func TestSiteSourceWeirdProfileKeepsFunnyOnly(t *testing.T) {
	srv := servePage(t, weirdPage)
	src := &SiteSource{
		URL:        srv.URL,
		Profile:    WeirdProfile,
		Client:     testClient(),
		Classifier: classify.New(nil, nil),
	}

	topics, err := src.Fetch(context.Background())
	require.NoError(t, err)

	var titles []string
	for _, tp := range topics {
		titles = append(titles, tp.Title())
	}
	assert.Equal(t, []string{
		"Bizarre goat parade shuts down main street",
		"Weird: man tries to pay for pizza with a lobster",
	}, titles)
}

func TestSiteSourceGovNewsTitleFromLink(t *testing.T) {
	srv := servePage(t, govPage)
	src := &SiteSource{URL: srv.URL, Profile: GovNewsProfile, Client: testClient(), Now: func() time.Time { return testNow }}

	topics, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, "Governor announces new broadband grants", topics[0].Title())
	assert.Equal(t, srv.URL+"/n/1", topics[0].URL())
	assert.Equal(t, "Ohio.gov", topics[0].Source())
	assert.True(t, time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC).Equal(topics[0].Timestamp()))
}

func TestSiteSourceEmptyPage(t *testing.T) {
	srv := servePage(t, `<html><body><p>nothing to see</p></body></html>`)
	src := &SiteSource{URL: srv.URL, Profile: CrimeProfile, Client: testClient()}

	topics, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, topics)
}

func TestSiteSourceFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	src := &SiteSource{URL: srv.URL, Profile: GovernmentProfile, Client: testClient("a", "b")}
	_, err := src.Fetch(context.Background())
	require.Error(t, err)

	var fe *fetch.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusForbidden, fe.LastStatus)
}

func TestFindLinkUsesAnchorCandidate(t *testing.T) {
	srv := servePage(t, `<html><body>
		<a href="/news/1">Township trustees approve new road repairs</a>
	</body></html>`)
	src := &SiteSource{URL: srv.URL, Profile: SiteProfile{
		Name:          "anchors",
		Containers:    []string{"a[href*='/news/']"},
		TitleFromLink: true,
	}, Client: testClient()}

	topics, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, srv.URL+"/news/1", topics[0].URL())
}
