package fetcher

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/pynezz/threatdash/pkg/types"
)

// Ingest posts a feed to /ingest. An empty feed url is rejected locally.
func (c *Client) Ingest(ctx context.Context, req types.IngestRequest) (*types.IngestResponse, error) {
	req.RSSURL = strings.TrimSpace(req.RSSURL)
	if req.RSSURL == "" {
		return nil, validation(OpIngest, MsgEmptyFeedURL)
	}
	if req.MaxItems <= 0 {
		req.MaxItems = DefaultItemCount
	}

	var out types.IngestResponse
	if err := c.do(ctx, OpIngest, http.MethodPost, c.endpoint("ingest"), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reports fetches the full report collection from /reports.
func (c *Client) Reports(ctx context.Context) (*types.ReportList, error) {
	var out types.ReportList
	if err := c.do(ctx, OpReports, http.MethodGet, c.endpoint("reports"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Report fetches one report with its IOCs and entities from /report/{id}.
func (c *Client) Report(ctx context.Context, id int64) (*types.ReportDetail, error) {
	var out types.ReportDetail
	target := c.endpoint("report", strconv.FormatInt(id, 10))
	if err := c.do(ctx, OpReport, http.MethodGet, target, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CVE looks up a CVE identifier at /cve/{id}. The id is normalized and must
// carry the CVE- prefix, otherwise no request is sent.
func (c *Client) CVE(ctx context.Context, id string) (*types.CVEResult, error) {
	normalized, err := NormalizeCVEID(id)
	if err != nil {
		return nil, err
	}

	var out types.CVEResult
	if err := c.do(ctx, OpCVE, http.MethodGet, c.endpoint("cve", normalized), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VoiceQuery forwards a transcript to /voice_query.
func (c *Client) VoiceQuery(ctx context.Context, query string) (*types.VoiceResponse, error) {
	var out types.VoiceResponse
	err := c.do(ctx, OpVoiceQuery, http.MethodPost, c.endpoint("voice_query"), types.VoiceQuery{Query: query}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
