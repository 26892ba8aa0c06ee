package service

import (
	"math"

	"sm-portal/internal/domain"
)

const maxPageSize = 100

func normalizePage(req domain.PageRequest, defaultSize int) domain.PageRequest {
	if req.Page < 0 {
		req.Page = 0
	}
	if req.Size <= 0 {
		req.Size = defaultSize
	}
	if req.Size > maxPageSize {
		req.Size = maxPageSize
	}
	// keep Offset() representable
	if limit := math.MaxInt32 / req.Size; req.Page > limit {
		req.Page = limit
	}
	return req
}
