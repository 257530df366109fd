package services

import (
	"slices"

	"github.com/openacademy/trilhas-backend/internal/data/repos"
	types "github.com/openacademy/trilhas-backend/internal/domain"
	"github.com/openacademy/trilhas-backend/internal/platform/dbctx"
)

// Expander batch-loads the relations named by _expand. Unknown names are
// ignored.
type Expander struct {
	users   repos.UserRepo
	trilhas repos.TrilhaRepo
	turmas  repos.TurmaRepo
}

func NewExpander(users repos.UserRepo, trilhas repos.TrilhaRepo, turmas repos.TurmaRepo) *Expander {
	return &Expander{users: users, trilhas: trilhas, turmas: turmas}
}

func wants(expand []string, name string) bool {
	return slices.Contains(expand, name)
}

func collectIDs[T any](rows []*T, key func(*T) string) []string {
	seen := map[string]bool{}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		id := key(r)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func (e *Expander) usersByID(dbc dbctx.Context, ids []string) (map[string]*types.User, error) {
	rows, err := e.users.GetByIDs(dbc, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*types.User, len(rows))
	for _, u := range rows {
		out[u.ID] = u.Redacted()
	}
	return out, nil
}

func (e *Expander) trilhasByID(dbc dbctx.Context, ids []string) (map[string]*types.Trilha, error) {
	rows, err := e.trilhas.GetByIDs(dbc, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*types.Trilha, len(rows))
	for _, t := range rows {
		out[t.ID] = t
	}
	return out, nil
}

func (e *Expander) turmasByID(dbc dbctx.Context, ids []string) (map[string]*types.Turma, error) {
	rows, err := e.turmas.GetByIDs(dbc, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*types.Turma, len(rows))
	for _, t := range rows {
		out[t.ID] = t
	}
	return out, nil
}

func (e *Expander) Trilhas(dbc dbctx.Context, rows []*types.Trilha, expand []string) ([]any, error) {
	var mentors map[string]*types.User
	if wants(expand, "mentor") {
		var err error
		if mentors, err = e.usersByID(dbc, collectIDs(rows, func(t *types.Trilha) string { return t.MentorID })); err != nil {
			return nil, err
		}
	}
	out := make([]any, 0, len(rows))
	for _, t := range rows {
		out = append(out, &TrilhaView{Trilha: t, Mentor: mentors[t.MentorID]})
	}
	return out, nil
}

// Turmas attaches trilha and mentor.
func (e *Expander) Turmas(dbc dbctx.Context, rows []*types.Turma, expand []string) ([]any, error) {
	views, err := e.turmaViews(dbc, rows, wants(expand, "trilha"), wants(expand, "mentor"))
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(views))
	for _, v := range views {
		out = append(out, v)
	}
	return out, nil
}

func (e *Expander) turmaViews(dbc dbctx.Context, rows []*types.Turma, withTrilha, withMentor bool) ([]*TurmaView, error) {
	var (
		trilhas map[string]*types.Trilha
		mentors map[string]*types.User
		err     error
	)
	if withTrilha {
		if trilhas, err = e.trilhasByID(dbc, collectIDs(rows, func(t *types.Turma) string { return t.TrilhaID })); err != nil {
			return nil, err
		}
	}
	if withMentor {
		if mentors, err = e.usersByID(dbc, collectIDs(rows, func(t *types.Turma) string { return t.MentorID })); err != nil {
			return nil, err
		}
	}
	out := make([]*TurmaView, 0, len(rows))
	for _, t := range rows {
		out = append(out, &TurmaView{Turma: t, Trilha: trilhas[t.TrilhaID], Mentor: mentors[t.MentorID]})
	}
	return out, nil
}

// TurmaInscriptions attaches user and turma; an expanded turma always
// carries its trilha and mentor.
func (e *Expander) TurmaInscriptions(dbc dbctx.Context, rows []*types.TurmaInscription, expand []string) ([]any, error) {
	var (
		users  map[string]*types.User
		turmas = map[string]*TurmaView{}
		err    error
	)
	if wants(expand, "user") {
		if users, err = e.usersByID(dbc, collectIDs(rows, func(i *types.TurmaInscription) string { return i.UserID })); err != nil {
			return nil, err
		}
	}
	if wants(expand, "turma") {
		byID, err := e.turmasByID(dbc, collectIDs(rows, func(i *types.TurmaInscription) string { return i.TurmaID }))
		if err != nil {
			return nil, err
		}
		list := make([]*types.Turma, 0, len(byID))
		for _, t := range byID {
			list = append(list, t)
		}
		views, err := e.turmaViews(dbc, list, true, true)
		if err != nil {
			return nil, err
		}
		for _, v := range views {
			turmas[v.ID] = v
		}
	}
	out := make([]any, 0, len(rows))
	for _, i := range rows {
		out = append(out, &TurmaInscriptionView{TurmaInscription: i, User: users[i.UserID], Turma: turmas[i.TurmaID]})
	}
	return out, nil
}

func (e *Expander) Certificates(dbc dbctx.Context, rows []*types.Certificate, expand []string) ([]any, error) {
	var (
		users   map[string]*types.User
		turmas  map[string]*types.Turma
		trilhas map[string]*types.Trilha
		err     error
	)
	if wants(expand, "user") {
		if users, err = e.usersByID(dbc, collectIDs(rows, func(c *types.Certificate) string { return c.UserID })); err != nil {
			return nil, err
		}
	}
	if wants(expand, "turma") {
		if turmas, err = e.turmasByID(dbc, collectIDs(rows, func(c *types.Certificate) string { return c.TurmaID })); err != nil {
			return nil, err
		}
	}
	if wants(expand, "trilha") {
		if trilhas, err = e.trilhasByID(dbc, collectIDs(rows, func(c *types.Certificate) string { return c.TrilhaID })); err != nil {
			return nil, err
		}
	}
	out := make([]any, 0, len(rows))
	for _, c := range rows {
		out = append(out, &CertificateView{Certificate: c, User: users[c.UserID], Turma: turmas[c.TurmaID], Trilha: trilhas[c.TrilhaID]})
	}
	return out, nil
}

func (e *Expander) Inscriptions(dbc dbctx.Context, rows []*types.Inscription, expand []string) ([]any, error) {
	var (
		users   map[string]*types.User
		trilhas map[string]*types.Trilha
		err     error
	)
	if wants(expand, "user") {
		if users, err = e.usersByID(dbc, collectIDs(rows, func(i *types.Inscription) string { return i.UserID })); err != nil {
			return nil, err
		}
	}
	if wants(expand, "trilha") {
		if trilhas, err = e.trilhasByID(dbc, collectIDs(rows, func(i *types.Inscription) string { return i.TrilhaID })); err != nil {
			return nil, err
		}
	}
	out := make([]any, 0, len(rows))
	for _, i := range rows {
		out = append(out, &InscriptionView{Inscription: i, User: users[i.UserID], Trilha: trilhas[i.TrilhaID]})
	}
	return out, nil
}

// Users only redacts.
func (e *Expander) Users(_ dbctx.Context, rows []*types.User, _ []string) ([]any, error) {
	out := make([]any, 0, len(rows))
	for _, u := range rows {
		out = append(out, u.Redacted())
	}
	return out, nil
}
