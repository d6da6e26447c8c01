package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"habitquest/internal/engine"
	"habitquest/internal/model"
	"habitquest/internal/remote"
	"habitquest/internal/storage"
)

// CompleteTask moves an active task to completed and grants its rewards.
// Completing an already completed task is a no-op reported as Duplicate.
func (r *Reconciler) CompleteTask(ctx context.Context, taskID string) (*Outcome, error) {
	return r.transition(ctx, taskID, model.TaskCompleted)
}

// FailTask moves an active task to failed. No rewards are granted.
func (r *Reconciler) FailTask(ctx context.Context, taskID string) (*Outcome, error) {
	return r.transition(ctx, taskID, model.TaskFailed)
}

func (r *Reconciler) transition(ctx context.Context, taskID string, to model.TaskStatus) (*Outcome, error) {
	return r.apply(ctx, event{
		op:  "task " + string(to),
		key: string(to) + ":" + taskID,
		eval: func(ctx context.Context, repos *storage.Repos, u model.User) (*engine.Result, error) {
			t, err := repos.Tasks.Get(ctx, taskID)
			if err != nil {
				return nil, err
			}
			if t.OwnerID != u.ID {
				return nil, fmt.Errorf("task %s: %w", taskID, storage.ErrNotFound)
			}
			if t.Status == to {
				return nil, errAlreadyApplied
			}
			if to == model.TaskCompleted {
				return engine.CompleteTask(u, *t, r.now(), r.loc)
			}
			return engine.FailTask(u, *t, r.now())
		},
		persist: func(ctx context.Context, repos *storage.Repos, res *engine.Result) error {
			changed, err := repos.Tasks.Transition(ctx, res.Task.ID, model.TaskActive, to, res.Task.CompletedAt)
			if err != nil {
				return err
			}
			if !changed {
				return errAlreadyApplied
			}
			return nil
		},
	})
}

// UseItem applies an inventory item: potions are consumed, clothing and
// weapons toggle.
func (r *Reconciler) UseItem(ctx context.Context, itemID string) (*Outcome, error) {
	return r.apply(ctx, event{
		op: "use item",
		eval: func(ctx context.Context, repos *storage.Repos, u model.User) (*engine.Result, error) {
			item, err := repos.Equipment.Get(ctx, itemID)
			if err != nil {
				return nil, err
			}
			if item.OwnerID != u.ID {
				return nil, fmt.Errorf("item %s: %w", itemID, storage.ErrNotFound)
			}
			return engine.UseItem(u, *item, r.now())
		},
		persist: persistItems,
	})
}

// Battle attacks the user's boss with the active equipment. A user without
// a boss meets a fresh level 1 one.
func (r *Reconciler) Battle(ctx context.Context) (*Outcome, error) {
	return r.apply(ctx, event{
		op: "battle",
		eval: func(ctx context.Context, repos *storage.Repos, u model.User) (*engine.Result, error) {
			boss, err := repos.Bosses.GetByOwner(ctx, u.ID)
			if errors.Is(err, storage.ErrNotFound) {
				b := engine.NewBoss(uuid.NewString(), u.ID)
				boss, err = &b, nil
			}
			if err != nil {
				return nil, err
			}
			items, err := repos.Equipment.ListByOwner(ctx, u.ID)
			if err != nil {
				return nil, err
			}
			return engine.ResolveBattle(u, *boss, items, r.now())
		},
		persist: func(ctx context.Context, repos *storage.Repos, res *engine.Result) error {
			if err := repos.Bosses.Upsert(ctx, res.Boss); err != nil {
				return err
			}
			return persistItems(ctx, repos, res)
		},
	})
}

func (r *Reconciler) CompleteMission(ctx context.Context) (*Outcome, error) {
	return r.apply(ctx, event{
		op: "special mission",
		eval: func(_ context.Context, _ *storage.Repos, u model.User) (*engine.Result, error) {
			return engine.CompleteSpecialMission(u, r.now()), nil
		},
	})
}

// SetAlliance joins allianceID, or leaves the current alliance when empty.
func (r *Reconciler) SetAlliance(ctx context.Context, allianceID string) (*Outcome, error) {
	return r.apply(ctx, event{
		op: "alliance",
		eval: func(_ context.Context, _ *storage.Repos, u model.User) (*engine.Result, error) {
			return engine.SetAlliance(u, allianceID, r.now()), nil
		},
	})
}

// CheckBadges re-evaluates the catalog without changing any counter.
func (r *Reconciler) CheckBadges(ctx context.Context) (*Outcome, error) {
	return r.apply(ctx, event{
		op: "check badges",
		eval: func(_ context.Context, _ *storage.Repos, u model.User) (*engine.Result, error) {
			return engine.CheckBadges(u, r.now()), nil
		},
	})
}

func persistItems(ctx context.Context, repos *storage.Repos, res *engine.Result) error {
	for i := range res.Items {
		if err := repos.Equipment.Upsert(ctx, &res.Items[i]); err != nil {
			return err
		}
	}
	for _, id := range res.RemovedItems {
		if err := repos.Equipment.Delete(ctx, id); err != nil {
			return err
		}
		if err := bury(ctx, repos, remote.Equipment, id, res.User.ID, res.User.UpdatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) CompleteTaskAsync(ctx context.Context, taskID string) *Future[*Outcome] {
	return Go(ctx, func(ctx context.Context) (*Outcome, error) { return r.CompleteTask(ctx, taskID) })
}

func (r *Reconciler) FailTaskAsync(ctx context.Context, taskID string) *Future[*Outcome] {
	return Go(ctx, func(ctx context.Context) (*Outcome, error) { return r.FailTask(ctx, taskID) })
}

func (r *Reconciler) UseItemAsync(ctx context.Context, itemID string) *Future[*Outcome] {
	return Go(ctx, func(ctx context.Context) (*Outcome, error) { return r.UseItem(ctx, itemID) })
}

func (r *Reconciler) BattleAsync(ctx context.Context) *Future[*Outcome] {
	return Go(ctx, r.Battle)
}

func (r *Reconciler) CompleteMissionAsync(ctx context.Context) *Future[*Outcome] {
	return Go(ctx, r.CompleteMission)
}
