package hostapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"braindrive-settings/internal/models"
)

const PagesPath = "/api/v1/pages"

type PageQuery struct {
	Page          int
	PageSize      int
	PublishedOnly bool
}

// ListPages fetches one page of the host's pages. Missing paging metadata in
// the response is filled in from the query.
func ListPages(ctx context.Context, api API, q PageQuery) (models.PageList, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 50
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("page_size", strconv.Itoa(q.PageSize))
	if q.PublishedOnly {
		params.Set("published_only", "true")
	}

	var raw json.RawMessage
	if err := api.Get(ctx, PagesPath, params, &raw); err != nil {
		return models.PageList{}, err
	}

	var list models.PageList
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &list); err != nil {
			return models.PageList{}, fmt.Errorf("decode pages: %w", err)
		}
	} else {
		pages, err := DecodeList[models.Page](raw)
		if err != nil {
			return models.PageList{}, fmt.Errorf("decode pages: %w", err)
		}
		list.Pages = pages
	}

	if list.Page == 0 {
		list.Page = q.Page
	}
	if list.PageSize == 0 {
		list.PageSize = q.PageSize
	}
	if list.Total == 0 {
		list.Total = len(list.Pages)
	}
	if list.TotalPages == 0 && list.PageSize > 0 {
		list.TotalPages = (list.Total + list.PageSize - 1) / list.PageSize
	}
	return list, nil
}
