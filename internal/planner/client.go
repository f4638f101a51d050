package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ewoodward/routinely/internal/models"
	"github.com/ewoodward/routinely/internal/services"
)

// Client implements API over the HTTP surface the bundled server exposes.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (client *Client) CreateRoutineDraft(ctx context.Context, familyID, name string) (models.Routine, error) {
	var routine models.Routine
	payload := map[string]string{"family_id": familyID, "name": name}
	err := client.do(ctx, http.MethodPost, "/api/routines", payload, &routine)
	return routine, err
}

func (client *Client) PatchRoutine(ctx context.Context, routineID string, patch RoutinePatch) (models.Routine, error) {
	var routine models.Routine
	err := client.do(ctx, http.MethodPatch, "/api/routines/"+routineID, patch, &routine)
	return routine, err
}

func (client *Client) GetRoutineFullData(ctx context.Context, routineID string) (services.FullData, error) {
	var fullData services.FullData
	err := client.do(ctx, http.MethodGet, "/api/routines/"+routineID+"/full-data", nil, &fullData)
	return fullData, err
}

func (client *Client) BulkCreateIndividualTasks(ctx context.Context, routineID string, input services.BulkAssignInput) (services.BulkAssignResult, error) {
	var result services.BulkAssignResult
	err := client.do(ctx, http.MethodPost, "/api/routines/"+routineID+"/tasks/bulk-assign", input, &result)
	return result, err
}

func (client *Client) BulkUpdateRecurringTasks(ctx context.Context, routineID string, input services.BulkUpdateInput) (services.BulkUpdateResult, error) {
	var result services.BulkUpdateResult
	err := client.do(ctx, http.MethodPost, "/api/routines/"+routineID+"/tasks/bulk-update-recurring", input, &result)
	return result, err
}

func (client *Client) BulkDeleteTasks(ctx context.Context, routineID string, input services.BulkDeleteInput) (services.BulkDeleteResult, error) {
	var result services.BulkDeleteResult
	err := client.do(ctx, http.MethodPost, "/api/routines/"+routineID+"/tasks/bulk-delete", input, &result)
	return result, err
}

func (client *Client) UpdateTemplateDays(ctx context.Context, routineID, templateID string, daysOfWeek []string) (models.RecurringTemplate, error) {
	var template models.RecurringTemplate
	payload := map[string][]string{"days_of_week": daysOfWeek}
	err := client.do(ctx, http.MethodPut, "/api/routines/"+routineID+"/templates/"+templateID+"/days", payload, &template)
	return template, err
}

func (client *Client) BulkUpdateDayOrders(ctx context.Context, routineID string, update DayOrderUpdate) ([]models.DaySpecificOrder, error) {
	var orders []models.DaySpecificOrder
	err := client.do(ctx, http.MethodPost, "/api/routines/"+routineID+"/day-orders/bulk", update, &orders)
	return orders, err
}

func (client *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, client.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if client.token != "" {
		request.Header.Set("Authorization", "Bearer "+client.token)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 400 {
		var apiError struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(response.Body).Decode(&apiError); err == nil && apiError.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, apiError.Error, response.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, response.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
