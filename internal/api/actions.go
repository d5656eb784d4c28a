package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/0xPuncker/cron-console/internal/form"
	"github.com/0xPuncker/cron-console/internal/gateway"
	"github.com/0xPuncker/cron-console/internal/joblist"
	"github.com/0xPuncker/cron-console/internal/notifications"
	"github.com/0xPuncker/cron-console/pkg/types"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const (
	ErrBusyMessage = "Another operation is in progress"

	// Any other op value, "patch" included, only merges the posted fields.
	opSubmit = "submit"
)

// mutation runs fn while holding the session's busy flag. A failure is stored as
// the session error; the caller always redirects back to the page.
func (h *Handler) mutation(r *http.Request, sess *Session, verb string, fn func(ctx context.Context) error) bool {
	if !sess.TryBegin() {
		sess.Update(func(st *UIState) { st.Error = ErrBusyMessage })
		return false
	}
	defer sess.End()

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		h.logger.WithFields(logrus.Fields{
			"session": sess.ID,
			"action":  verb,
			"error":   err.Error(),
		}).Warn("Job action failed")
		sess.Update(func(st *UIState) { st.Error = fmt.Sprintf("Failed to %s: %v", verb, err) })
		return false
	}
	sess.Update(func(st *UIState) { st.Error = "" })
	return true
}

// findJob looks the job up in the gateway's job list.
func (h *Handler) findJob(r *http.Request, id string) (types.Job, error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	jobs, err := h.gateway.List(ctx)
	if err != nil {
		return types.Job{}, err
	}
	for _, job := range jobs {
		if job.ID == id {
			return job, nil
		}
	}
	return types.Job{}, fmt.Errorf("%w: %s", gateway.ErrNotFound, id)
}

// jobFor resolves the {id} route variable, storing an error on the session when it fails.
func (h *Handler) jobFor(r *http.Request, sess *Session) (types.Job, bool) {
	id := mux.Vars(r)["id"]
	job, err := h.findJob(r, id)
	if err != nil {
		sess.Update(func(st *UIState) { st.Error = "Failed to load job: " + err.Error() })
		return types.Job{}, false
	}
	return job, true
}

func (h *Handler) FormAction(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	defer h.redirect(w, r)

	if err := r.ParseForm(); err != nil {
		sess.Update(func(st *UIState) { st.Error = "Invalid form submission" })
		return
	}

	patch := patchFromForm(r.PostForm)
	sess.Update(func(st *UIState) {
		st.Form = st.Form.Apply(patch)
		st.Error = ""
	})

	if r.PostForm.Get("op") != opSubmit {
		return
	}
	h.submit(r, sess)
}

func (h *Handler) submit(r *http.Request, sess *Session) {
	state := sess.State()
	if !form.CanSubmit(form.Validate(state.Form), false) {
		return
	}

	in, err := form.Build(state.Form, h.loc)
	if err != nil {
		sess.Update(func(st *UIState) { st.Error = "Failed to save job: " + err.Error() })
		return
	}

	editing := state.EditingJobID
	var saved *types.Job
	ok := h.mutation(r, sess, "save job", func(ctx context.Context) error {
		var err error
		if editing != "" {
			saved, err = h.gateway.Update(ctx, editing, in)
		} else {
			saved, err = h.gateway.Add(ctx, in)
		}
		return err
	})
	if !ok {
		return
	}

	action, verb := notifications.ActionAdd, "created"
	if editing != "" {
		action, verb = notifications.ActionUpdate, "updated"
	}
	name := in.Name
	if saved != nil && saved.Name != "" {
		name = saved.Name
	}

	sess.Update(func(st *UIState) {
		st.Form = form.Default()
		st.EditingJobID = ""
		st.Flash = fmt.Sprintf("Job %q %s", name, verb)
	})

	if saved != nil {
		h.audit(action, *saved, sess)
	}
}

func (h *Handler) resetForm(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	sess.Update(func(st *UIState) {
		st.Form = form.Default()
		st.EditingJobID = ""
		st.Error = ""
	})
	h.redirect(w, r)
}

func (h *Handler) CancelEdit(w http.ResponseWriter, r *http.Request) {
	h.resetForm(w, r)
}

func (h *Handler) NewJob(w http.ResponseWriter, r *http.Request) {
	h.resetForm(w, r)
}

func (h *Handler) EditJob(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	defer h.redirect(w, r)

	job, ok := h.jobFor(r, sess)
	if !ok {
		return
	}
	sess.Update(func(st *UIState) {
		st.Form = form.FromJob(job, h.loc)
		st.EditingJobID = job.ID
		st.Error = ""
	})
}

func (h *Handler) DuplicateJob(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	defer h.redirect(w, r)

	job, ok := h.jobFor(r, sess)
	if !ok {
		return
	}
	sess.Update(func(st *UIState) {
		st.Form = form.Duplicate(job, h.loc)
		st.EditingJobID = ""
		st.Error = ""
	})
}

func (h *Handler) ToggleJob(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	defer h.redirect(w, r)

	if err := r.ParseForm(); err != nil {
		sess.Update(func(st *UIState) { st.Error = "Invalid form submission" })
		return
	}
	enabled := boolField(r.PostForm, "enabled")
	if enabled == nil {
		sess.Update(func(st *UIState) { st.Error = "Missing enabled value" })
		return
	}

	id := mux.Vars(r)["id"]
	var updated *types.Job
	ok := h.mutation(r, sess, "update job", func(ctx context.Context) error {
		var err error
		updated, err = h.gateway.SetEnabled(ctx, id, *enabled)
		return err
	})
	if !ok || updated == nil {
		return
	}

	action, verb := notifications.ActionDisable, "disabled"
	if *enabled {
		action, verb = notifications.ActionEnable, "enabled"
	}
	sess.Update(func(st *UIState) { st.Flash = fmt.Sprintf("Job %q %s", updated.Name, verb) })
	h.audit(action, *updated, sess)
}

func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	defer h.redirect(w, r)

	job, ok := h.jobFor(r, sess)
	if !ok {
		return
	}
	if !job.Enabled {
		sess.Update(func(st *UIState) { st.Error = fmt.Sprintf("Job %q is disabled", job.Name) })
		return
	}

	if !h.mutation(r, sess, "run job", func(ctx context.Context) error {
		return h.gateway.Run(ctx, job.ID)
	}) {
		return
	}

	sess.Update(func(st *UIState) {
		st.Flash = fmt.Sprintf("Job %q triggered", job.Name)
		st.RunsJobID = job.ID
	})
	h.audit(notifications.ActionRun, job, sess)
}

// RemoveJob only opens the confirmation dialog.
func (h *Handler) RemoveJob(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	id := mux.Vars(r)["id"]
	sess.Update(func(st *UIState) { st.ConfirmRemoveID = id })
	h.redirect(w, r)
}

func (h *Handler) ConfirmRemoveJob(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	defer h.redirect(w, r)

	id := mux.Vars(r)["id"]
	if sess.State().ConfirmRemoveID != id {
		sess.Update(func(st *UIState) { st.Error = "Removal was not confirmed" })
		return
	}

	job, err := h.findJob(r, id)
	if err != nil && !errors.Is(err, gateway.ErrNotFound) {
		sess.Update(func(st *UIState) { st.Error = "Failed to remove job: " + err.Error() })
		return
	}
	if job.ID == "" {
		job.ID = id
	}

	ok := h.mutation(r, sess, "remove job", func(ctx context.Context) error {
		return h.gateway.Remove(ctx, id)
	})

	sess.Update(func(st *UIState) {
		st.ConfirmRemoveID = ""
		if !ok {
			return
		}
		if st.EditingJobID == id {
			st.Form = form.Default()
			st.EditingJobID = ""
		}
		if st.RunsJobID == id {
			st.RunsJobID = ""
		}
		st.Flash = "Job removed"
	})
	if ok {
		h.audit(notifications.ActionRemove, job, sess)
	}
}

func (h *Handler) CancelDialog(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	sess.Update(func(st *UIState) { st.ConfirmRemoveID = "" })
	h.redirect(w, r)
}

// SelectRuns opens the run history of the posted job id. An empty id closes it.
func (h *Handler) SelectRuns(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	if err := r.ParseForm(); err == nil {
		id := r.PostForm.Get("job_id")
		sess.Update(func(st *UIState) { st.RunsJobID = id })
	}
	h.redirect(w, r)
}

func (h *Handler) SetFilter(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	if err := r.ParseForm(); err == nil {
		sess.Update(func(st *UIState) {
			if q, ok := lastValue(r.PostForm, "q"); ok {
				st.Filter = q
			}
			if t, ok := lastValue(r.PostForm, "type"); ok {
				st.FilterType = joblist.ParseFilterType(t)
			}
		})
	}
	h.redirect(w, r)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	h.gateway.Invalidate()
	h.markUpdated(h.now())
	sess.Update(func(st *UIState) { st.Error = "" })
	h.redirect(w, r)
}
