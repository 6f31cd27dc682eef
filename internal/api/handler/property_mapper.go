package handler

import (
	"github.com/nyumbaconnect/rental-api/internal/core/domain"
	"github.com/nyumbaconnect/rental-api/internal/core/ports"
)

func toPropertyResponse(p *domain.Property, visibility ports.Visibility) propertyResponse {
	resp := propertyResponse{
		ID:            p.ID,
		LandlordID:    p.LandlordID,
		Title:         p.Title,
		Description:   p.Description,
		Location:      p.Location,
		Area:          p.Area,
		Nearby:        p.Nearby,
		PropertyType:  string(p.Type),
		Price:         p.Price,
		Images:        toImageResponses(p.Images),
		Amenities:     p.Amenities,
		Rules:         rulesResponse(p.Rules),
		ContactPerson: p.ContactPerson,
		ContactPhone:  p.ContactPhone,
		IsActive:      p.IsActive,
		IsVerified:    p.IsVerified,
		Views:         p.Views,
		TotalUnlocks:  p.TotalUnlocks,
		Visibility:    string(visibility),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if resp.Amenities == nil {
		resp.Amenities = []string{}
	}
	return resp
}

func toImageResponses(images []domain.Image) []imageResponse {
	out := make([]imageResponse, 0, len(images))
	for _, img := range images {
		out = append(out, imageResponse(img))
	}
	return out
}

func toSummaryResponses(items []ports.PropertySummary) []propertySummaryResponse {
	out := make([]propertySummaryResponse, 0, len(items))
	for _, item := range items {
		amenities := item.Amenities
		if amenities == nil {
			amenities = []string{}
		}
		out = append(out, propertySummaryResponse{
			ID:           item.ID,
			Title:        item.Title,
			Description:  item.Description,
			Location:     item.Location,
			Area:         item.Area,
			Nearby:       item.Nearby,
			PropertyType: item.PropertyType,
			Price:        item.Price,
			Amenities:    amenities,
			Rules:        rulesResponse(item.Rules),
			PrimaryImage: item.PrimaryImage,
			IsVerified:   item.IsVerified,
			Views:        item.Views,
			TotalUnlocks: item.TotalUnlocks,
			CreatedAt:    item.CreatedAt,
			UpdatedAt:    item.UpdatedAt,
		})
	}
	return out
}

func toPaginationResponse(p ports.Pagination) paginationResponse {
	return paginationResponse{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      p.Total,
		TotalPages: p.Pages,
	}
}

func toAppliedFiltersResponse(a ports.AppliedFilters) appliedFiltersResponse {
	return appliedFiltersResponse{
		Location:         a.Location,
		Area:             a.Area,
		PropertyType:     a.PropertyType,
		Amenities:        a.Amenities,
		Pets:             a.Pets,
		Children:         a.Children,
		Visitors:         a.Visitors,
		MinDepositMonths: a.MinDepositMonths,
		MaxDepositMonths: a.MaxDepositMonths,
		MinPrice:         a.MinPrice,
		MaxPrice:         a.MaxPrice,
		Query:            a.Query,
		Sort:             a.Sort,
	}
}

func toRulesInput(r *rulesRequest) *ports.RulesInput {
	if r == nil {
		return nil
	}
	return &ports.RulesInput{
		Pets:          r.Pets,
		Children:      r.Children,
		Visitors:      r.Visitors,
		DepositMonths: r.DepositMonths,
	}
}
