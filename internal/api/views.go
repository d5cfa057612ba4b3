package api

import (
	"net/url"
	"sort"
	"strconv"

	"github.com/myblogsite/myblog/internal/models"
	"github.com/myblogsite/myblog/internal/service"
)

const allTags = service.AllTags

var pageSizes = []int{5, 10, 20, 50}

// FeedPage is the view model of the feed
type FeedPage struct {
	Posts        []models.FeedPost
	AllTags      []string
	TagFilter    string
	Offset       int
	Limit        int
	TotalPosts   int64
	LimitOptions []int
	Page         int
	Pages        int
	HasPrev      bool
	HasNext      bool
	PrevURL      string
	NextURL      string
}

// PostPage is the view model of a single post
type PostPage struct {
	Post     models.Post
	Tags     []string
	TagsText string
	Comments []models.Comment
	Likes    int64
}

// ErrorPage is the view model of the error page
type ErrorPage struct {
	Status  int
	Title   string
	Message string
}

func newFeedPage(posts []models.FeedPost, tags []string, tagFilter string, offset, limit int, total int64) FeedPage {
	pages := int((total + int64(limit) - 1) / int64(limit))
	if pages < 1 {
		pages = 1
	}

	page := FeedPage{
		Posts:        posts,
		AllTags:      tags,
		TagFilter:    tagFilter,
		Offset:       offset,
		Limit:        limit,
		TotalPosts:   total,
		LimitOptions: limitOptions(limit),
		Page:         offset/limit + 1,
		Pages:        pages,
		HasPrev:      offset > 0,
		HasNext:      int64(offset+limit) < total,
	}

	if page.HasPrev {
		prev := offset - limit
		if prev < 0 {
			prev = 0
		}
		page.PrevURL = feedURL(tagFilter, prev, limit)
	}
	if page.HasNext {
		page.NextURL = feedURL(tagFilter, offset+limit, limit)
	}
	return page
}

func newPostPage(details *service.PostDetails) PostPage {
	return PostPage{
		Post:     details.Post,
		Tags:     details.Tags,
		TagsText: service.JoinTags(details.Tags),
		Comments: details.Comments,
		Likes:    details.Likes,
	}
}

func feedURL(tagFilter string, offset, limit int) string {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("tag-filter", tagFilter)
	return "/posts?" + q.Encode()
}

// limitOptions returns the page-size choices, including the current one
func limitOptions(current int) []int {
	options := append([]int(nil), pageSizes...)
	for _, size := range options {
		if size == current {
			return options
		}
	}
	options = append(options, current)
	sort.Ints(options)
	return options
}
