package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"habitquest/internal/model"
	"habitquest/internal/remote"
	"habitquest/internal/storage"
)

type TaskInput struct {
	Title      string
	CategoryID *string
	Due        time.Time
	Recurrence []int
}

// AddTask stores a new active task for the signed-in user.
func (r *Reconciler) AddTask(ctx context.Context, in TaskInput) (*model.Task, error) {
	uid, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("task title is empty: %w", ErrInvalidInput)
	}
	for _, d := range in.Recurrence {
		if d < 0 || d > 6 {
			return nil, fmt.Errorf("weekday %d: %w", d, ErrInvalidInput)
		}
	}

	t := &model.Task{
		ID:         uuid.NewString(),
		OwnerID:    uid,
		Title:      title,
		CategoryID: in.CategoryID,
		Status:     model.TaskActive,
		Recurrence: in.Recurrence,
		CreatedAt:  r.now().UnixMilli(),
	}
	if !in.Due.IsZero() {
		t.DueDate = in.Due.UnixMilli()
	}

	err = r.local.Write(ctx, "add task", func(repos *storage.Repos) error {
		if t.CategoryID != nil {
			c, err := repos.Categories.Get(ctx, *t.CategoryID)
			if err != nil {
				return err
			}
			if c.OwnerID != uid {
				return fmt.Errorf("category %s: %w", c.ID, storage.ErrNotFound)
			}
		}
		return repos.Tasks.Upsert(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, r.mirror(ctx, "add task", func(ctx context.Context) error {
		return r.remote.SaveTask(ctx, *t)
	})
}

func (r *Reconciler) ListTasks(ctx context.Context) ([]model.Task, error) {
	uid, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	return r.local.Read().Tasks.ListByOwner(ctx, uid)
}

func (r *Reconciler) ListTasksByStatus(ctx context.Context, status model.TaskStatus) ([]model.Task, error) {
	uid, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	return r.local.Read().Tasks.ListByStatus(ctx, uid, status)
}

// DeleteTask removes one of the signed-in user's tasks. Tasks of other
// users read as storage.ErrNotFound.
func (r *Reconciler) DeleteTask(ctx context.Context, taskID string) error {
	uid, err := r.session(ctx)
	if err != nil {
		return err
	}
	err = r.local.Write(ctx, "delete task", func(repos *storage.Repos) error {
		t, err := repos.Tasks.Get(ctx, taskID)
		if err != nil {
			return err
		}
		if t.OwnerID != uid {
			return fmt.Errorf("task %s: %w", taskID, storage.ErrNotFound)
		}
		if err := repos.Tasks.Delete(ctx, taskID); err != nil {
			return err
		}
		return bury(ctx, repos, remote.Tasks, taskID, uid, r.now().UnixMilli())
	})
	if err != nil {
		return err
	}
	return r.mirror(ctx, "delete task", func(ctx context.Context) error {
		return r.flushTombstones(ctx, uid)
	})
}

// AddCategory creates a category; the color must come from model.Palette.
func (r *Reconciler) AddCategory(ctx context.Context, name string, color model.Color) (*model.Category, error) {
	uid, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("category name is empty: %w", ErrInvalidInput)
	}
	if !color.IsValid() {
		return nil, fmt.Errorf("color %q: %w", color, ErrInvalidInput)
	}
	c := &model.Category{ID: uuid.NewString(), OwnerID: uid, Name: name, Color: color}
	err = r.local.Write(ctx, "add category", func(repos *storage.Repos) error {
		return repos.Categories.Upsert(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, r.mirror(ctx, "add category", func(ctx context.Context) error {
		return r.remote.SaveCategory(ctx, *c)
	})
}

func (r *Reconciler) ListCategories(ctx context.Context) ([]model.Category, error) {
	uid, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	return r.local.Read().Categories.ListByOwner(ctx, uid)
}

// DeleteCategory fails with storage.ErrConstraintViolation while a task
// still refers to the category, and with storage.ErrNotFound for another
// user's category.
func (r *Reconciler) DeleteCategory(ctx context.Context, categoryID string) error {
	uid, err := r.session(ctx)
	if err != nil {
		return err
	}
	err = r.local.Write(ctx, "delete category", func(repos *storage.Repos) error {
		c, err := repos.Categories.Get(ctx, categoryID)
		if err != nil {
			return err
		}
		if c.OwnerID != uid {
			return fmt.Errorf("category %s: %w", categoryID, storage.ErrNotFound)
		}
		if err := repos.Categories.Delete(ctx, categoryID); err != nil {
			return err
		}
		return bury(ctx, repos, remote.Categories, categoryID, uid, r.now().UnixMilli())
	})
	if err != nil {
		return err
	}
	return r.mirror(ctx, "delete category", func(ctx context.Context) error {
		return r.flushTombstones(ctx, uid)
	})
}

type ItemInput struct {
	Name     string
	Type     model.ItemType
	Quantity int
	Bonus    int
}

func (r *Reconciler) AddItem(ctx context.Context, in ItemInput) (*model.Equipment, error) {
	uid, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" || !in.Type.IsValid() || in.Quantity <= 0 || in.Bonus < 0 {
		return nil, fmt.Errorf("item %q (%s x%d): %w", in.Name, in.Type, in.Quantity, ErrInvalidInput)
	}
	e := &model.Equipment{
		ID:       uuid.NewString(),
		OwnerID:  uid,
		Name:     strings.TrimSpace(in.Name),
		Type:     in.Type,
		Quantity: in.Quantity,
		Bonus:    in.Bonus,
	}
	err = r.local.Write(ctx, "add item", func(repos *storage.Repos) error {
		return repos.Equipment.Upsert(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	return e, r.mirror(ctx, "add item", func(ctx context.Context) error {
		return r.remote.SaveItem(ctx, *e)
	})
}

func (r *Reconciler) ListItems(ctx context.Context) ([]model.Equipment, error) {
	uid, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	return r.local.Read().Equipment.ListByOwner(ctx, uid)
}

// Boss returns the user's boss, or storage.ErrNotFound before the first
// battle.
func (r *Reconciler) Boss(ctx context.Context) (*model.Boss, error) {
	uid, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	return r.local.Read().Bosses.GetByOwner(ctx, uid)
}

// mirror runs a remote write for a record already committed locally.
func (r *Reconciler) mirror(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if r.remote == nil {
		return nil
	}
	if err := fn(ctx); err != nil {
		return &PendingError{Op: op, Err: err}
	}
	return nil
}
