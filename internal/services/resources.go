package services

import (
	"github.com/openacademy/trilhas-backend/internal/data/repos"
	types "github.com/openacademy/trilhas-backend/internal/domain"
	domainagg "github.com/openacademy/trilhas-backend/internal/domain/aggregates"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
	"github.com/openacademy/trilhas-backend/internal/realtime"
)

// Resources holds the generic REST resources keyed by collection name.
type Resources struct {
	Users              Resource
	Trilhas            Resource
	Turmas             Resource
	TurmaInscriptions  Resource
	Certificates       Resource
	LegacyInscriptions Resource
}

// NewResources builds the registry. Turma edits and turma/trilha deletes go
// through agg; publisher may be nil.
func NewResources(log *logger.Logger, set *repos.Set, agg domainagg.EnrollmentAggregate, publisher realtime.Publisher) *Resources {
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	exp := NewExpander(set.Users, set.Trilhas, set.Turmas)
	res := &Resources{
		Users: NewResource(log, ResourceConfig[types.User]{
			Entity:     "User",
			Collection: set.Users,
			Expand:     exp.Users,
		}),
		Trilhas: NewResource(log, ResourceConfig[types.Trilha]{
			Entity:     "Trilha",
			Collection: set.Trilhas,
			Expand:     exp.Trilhas,
			Prepare:    func(t *types.Trilha) { t.EnrolledCount = 0 },
		}),
		Turmas: NewResource(log, ResourceConfig[types.Turma]{
			Entity:     "Turma",
			Collection: set.Turmas,
			Expand:     exp.Turmas,
			Prepare: func(t *types.Turma) {
				t.EnrolledCount = 0
				t.ApprovedCount = 0
			},
		}),
		TurmaInscriptions: NewResource(log, ResourceConfig[types.TurmaInscription]{
			Entity:     "Inscription",
			Collection: set.TurmaInscriptions,
			Expand:     exp.TurmaInscriptions,
		}),
		Certificates: NewResource(log, ResourceConfig[types.Certificate]{
			Entity:     "Certificate",
			Collection: set.Certificates,
			Expand:     exp.Certificates,
			Immutable:  true,
		}),
		LegacyInscriptions: NewResource(log, ResourceConfig[types.Inscription]{
			Entity:     "Inscription",
			Collection: set.LegacyInscriptions,
			Expand:     exp.Inscriptions,
		}),
	}
	res.Trilhas = &trilhaResource{
		Resource: res.Trilhas,
		agg:      agg,
		log:      log.With("service", "TrilhaResource"),
	}
	res.Turmas = &turmaResource{
		Resource:  res.Turmas,
		turmas:    set.Turmas,
		agg:       agg,
		expand:    exp,
		validate:  newValidator(),
		publisher: publisher,
		log:       log.With("service", "TurmaResource"),
	}
	return res
}

// All lists every resource for route registration.
func (r *Resources) All() []Resource {
	return []Resource{r.Users, r.Trilhas, r.Turmas, r.TurmaInscriptions, r.Certificates, r.LegacyInscriptions}
}
