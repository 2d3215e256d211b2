package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hatlabs/cockpit-container-apps/internal/schema"
)

// API is the backend command surface. It is implemented by *Client and can
// be replaced with a test double.
type API interface {
	ListStores(ctx context.Context) ([]Store, error)
	ListCategories(ctx context.Context, storeID string) ([]Category, error)
	GetStoreData(ctx context.Context, storeID string) (StoreData, error)
	ListPackagesByCategory(ctx context.Context, categoryID, storeID string) ([]Package, error)
	FilterPackages(ctx context.Context, query FilterQuery) (FilterResult, error)
	Install(ctx context.Context, name string, onProgress ProgressFunc) error
	Remove(ctx context.Context, name string, onProgress ProgressFunc) error
	GetConfigSchema(ctx context.Context, pkg string) (schema.Schema, error)
	GetConfig(ctx context.Context, pkg string) (schema.Values, error)
	SetConfig(ctx context.Context, pkg string, values schema.Values) (SaveResult, error)
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Client maps backend commands to typed calls.
type Client struct {
	gw *Gateway
}

// NewClient wraps gw.
func NewClient(gw *Gateway) *Client {
	return &Client{gw: gw}
}

// Version reports the backend name and version.
func (c *Client) Version(ctx context.Context) (VersionInfo, error) {
	return Call[VersionInfo](ctx, c.gw, "version", nil)
}

// ListStores returns every configured store. An empty list means vanilla mode.
func (c *Client) ListStores(ctx context.Context) ([]Store, error) {
	return Call[[]Store](ctx, c.gw, "list-stores", nil)
}

// ListCategories lists categories, optionally scoped to a store.
func (c *Client) ListCategories(ctx context.Context, storeID string) ([]Category, error) {
	var args []string
	if id := strings.TrimSpace(storeID); id != "" {
		args = append(args, Flag("store", id))
	}
	return Call[[]Category](ctx, c.gw, "list-categories", args)
}

// GetStoreData fetches the store, its complete package set and categories in
// one round trip.
func (c *Client) GetStoreData(ctx context.Context, storeID string) (StoreData, error) {
	id := strings.TrimSpace(storeID)
	if err := checkPositional("store id", id); err != nil {
		return StoreData{}, err
	}
	return Call[StoreData](ctx, c.gw, "get-store-data", []string{id})
}

// ListPackagesByCategory lists the packages tagged with categoryID.
func (c *Client) ListPackagesByCategory(ctx context.Context, categoryID, storeID string) ([]Package, error) {
	if err := checkPositional("category id", categoryID); err != nil {
		return nil, err
	}
	args := []string{categoryID}
	if id := strings.TrimSpace(storeID); id != "" {
		args = append(args, Flag("store", id))
	}
	return Call[[]Package](ctx, c.gw, "list-packages-by-category", args)
}

// FilterPackages runs the backend-side filter. Used when no store cache exists.
func (c *Client) FilterPackages(ctx context.Context, query FilterQuery) (FilterResult, error) {
	var args []string
	add := func(key, value string) {
		if v := strings.TrimSpace(value); v != "" {
			args = append(args, Flag(key, v))
		}
	}
	add("store", query.Store)
	add("repo", query.Repo)
	add("category", query.Category)
	add("tab", query.Tab)
	add("search", query.Search)
	if query.Limit > 0 {
		args = append(args, Flag("limit", strconv.Itoa(query.Limit)))
	}
	return Call[FilterResult](ctx, c.gw, "filter-packages", args)
}

// Install installs name, reporting progress until the backend finishes.
func (c *Client) Install(ctx context.Context, name string, onProgress ProgressFunc) error {
	if err := checkPositional("package name", name); err != nil {
		return err
	}
	return c.gw.InvokeStreaming(ctx, "install", []string{name}, onProgress, Superuser())
}

// Remove uninstalls name, reporting progress until the backend finishes.
func (c *Client) Remove(ctx context.Context, name string, onProgress ProgressFunc) error {
	if err := checkPositional("package name", name); err != nil {
		return err
	}
	return c.gw.InvokeStreaming(ctx, "remove", []string{name}, onProgress, Superuser())
}

// GetConfigSchema fetches the configuration schema shipped with pkg.
func (c *Client) GetConfigSchema(ctx context.Context, pkg string) (schema.Schema, error) {
	if err := checkPositional("package name", pkg); err != nil {
		return schema.Schema{}, err
	}
	resp, err := Call[schemaResponse](ctx, c.gw, "get-config-schema", []string{pkg})
	if err != nil {
		return schema.Schema{}, withDefaultCode(err, CodeSchema)
	}
	if !resp.Success {
		return schema.Schema{}, &Error{Code: CodeSchema, Message: fmt.Sprintf("no configuration schema for %s", pkg)}
	}
	return resp.Schema, nil
}

// GetConfig fetches the persisted values (defaults merged with overrides).
func (c *Client) GetConfig(ctx context.Context, pkg string) (schema.Values, error) {
	if err := checkPositional("package name", pkg); err != nil {
		return nil, err
	}
	resp, err := Call[configResponse](ctx, c.gw, "get-config", []string{pkg})
	if err != nil {
		return nil, withDefaultCode(err, CodeConfig)
	}
	if !resp.Success {
		return nil, &Error{Code: CodeConfig, Message: fmt.Sprintf("could not read configuration for %s", pkg)}
	}
	if resp.Config == nil {
		resp.Config = schema.Values{}
	}
	return resp.Config, nil
}

// SetConfig persists values for pkg. The payload may hold secrets and is
// never logged.
func (c *Client) SetConfig(ctx context.Context, pkg string, values schema.Values) (SaveResult, error) {
	if err := checkPositional("package name", pkg); err != nil {
		return SaveResult{}, err
	}
	if values == nil {
		values = schema.Values{}
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return SaveResult{}, fmt.Errorf("encode config: %w", err)
	}
	resp, err := Call[setConfigResponse](ctx, c.gw, "set-config", []string{pkg, string(payload)}, Superuser(), Sensitive())
	if err != nil {
		return SaveResult{}, withDefaultCode(err, CodeConfig)
	}
	if !resp.Success {
		return SaveResult{}, &Error{Code: CodeConfig, Message: fmt.Sprintf("could not save configuration for %s", pkg)}
	}
	return SaveResult{Warning: resp.Warning}, nil
}
