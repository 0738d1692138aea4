// Package archive provides the concrete dispatch collaborators the daemon
// runs with: a filesystem-backed item archive, a configured desk directory,
// and a macro registry. Deployments embedding the routing engine in a larger
// editorial system supply their own implementations instead.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/rjardine/newsroute/internal/dispatch"
	"github.com/rjardine/newsroute/internal/model"
	"github.com/rjardine/newsroute/internal/routing"
)

// FS archives items as JSON files under root/<desk>/<stage>/.
type FS struct {
	root string
}

func NewFS(root string) (*FS, error) {
	if root == "" {
		return nil, fmt.Errorf("archive root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create archive root: %w", err)
	}
	return &FS{root: root}, nil
}

// Fetch writes the item copy into the destination stage directory and
// returns the archived identity.
func (a *FS) Fetch(ctx context.Context, item *model.Item, dest dispatch.StageRef) (string, error) {
	return a.write(ctx, item, dest, nil)
}

// Publish is Fetch plus the targeting metadata stored alongside the item for
// the downstream publish stage.
func (a *FS) Publish(ctx context.Context, item *model.Item, dest dispatch.StageRef, action routing.Action) (string, error) {
	return a.write(ctx, item, dest, &action)
}

type archivedItem struct {
	ID        string          `json:"id"`
	Item      *model.Item     `json:"item"`
	Targeting *routing.Action `json:"targeting,omitempty"`
}

func (a *FS) write(ctx context.Context, item *model.Item, dest dispatch.StageRef, action *routing.Action) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(a.root, dest.DeskID, dest.StageID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create stage directory: %w", err)
	}

	id := uuid.NewString()
	data, err := json.MarshalIndent(archivedItem{ID: id, Item: item, Targeting: action}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal archived item: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, id+".json"), data, 0o644); err != nil {
		return "", fmt.Errorf("write archived item: %w", err)
	}
	return id, nil
}
