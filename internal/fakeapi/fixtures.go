package fakeapi

import (
	"fmt"
	"time"
)

// Demo credentials accepted by a new Server.
const (
	DemoEmail    = "jsp@sdis88.fr"
	DemoPassword = "pompier88"
)

type account struct {
	password string
	profile  map[string]any
}

// quizFixture is a quiz as the server stores it: the raw payload plus the
// answer key used for scoring.
type quizFixture struct {
	payload map[string]any
	correct map[int64]int64 // question id -> correct answer id
}

type courseFixture struct {
	payload map[string]any
	file    []byte
}

func seedAccounts() map[string]account {
	return map[string]account{
		DemoEmail: {
			password: DemoPassword,
			profile: map[string]any{
				"id":          7,
				"nom":         "Martin",
				"prenom":      "Léa",
				"mail":        DemoEmail,
				"grade":       map[string]any{"id": 2, "libelle": "JSP 2"},
				"is_verified": true,
				"stats":       map[string]any{"quiz_passes": 3},
			},
		},
	}
}

// seedQuizzes deliberately mixes the field names the real portal uses.
func seedQuizzes() map[int64]quizFixture {
	return map[int64]quizFixture{
		1: {
			payload: map[string]any{
				"id":    1,
				"titre": "Sécurité incendie",
				"questions": []any{
					map[string]any{
						"id":      10,
						"contenu": "Quel extincteur pour un feu de classe A ?",
						"reponses": []any{
							map[string]any{"id": 100, "intitule": "Eau pulvérisée"},
							map[string]any{"id": 101, "intitule": "CO2"},
						},
					},
					map[string]any{
						"id":      11,
						"contenu": "Numéro d'appel des pompiers ?",
						"reponses": []any{
							map[string]any{"id": 110, "intitule": "15"},
							map[string]any{"id": 111, "intitule": "18"},
						},
					},
				},
			},
			correct: map[int64]int64{10: 100, 11: 111},
		},
		2: {
			payload: map[string]any{
				"id":  "2",
				"nom": "Secourisme",
				"questions": []any{
					map[string]any{
						"id":       "20",
						"question": "Position d'attente d'une victime inconsciente qui respire ?",
						"reponses": []any{
							map[string]any{"id": "200", "texte": "PLS"},
							map[string]any{"id": "201", "texte": "Assise"},
							map[string]any{"id": "202", "libelle": "Debout"},
						},
					},
					map[string]any{
						"id":     21,
						"enonce": "Rythme des compressions thoraciques (par minute) ?",
						"reponses": []any{
							map[string]any{"id": 210, "libelle": "60"},
							map[string]any{"id": 211, "libelle": "100 à 120"},
						},
					},
					map[string]any{
						"id": 22,
						"reponses": []any{
							map[string]any{"id": 220},
							map[string]any{"id": 221, "texte": "Oui"},
						},
					},
				},
			},
			correct: map[int64]int64{20: 200, 21: 211, 22: 221},
		},
		3: {
			payload: map[string]any{"id": 3, "titre": "Quiz vide", "questions": []any{}},
			correct: map[int64]int64{},
		},
	}
}

func seedCourses() map[int64]courseFixture {
	course := func(id int64, fields map[string]any) courseFixture {
		fields["id"] = id
		return courseFixture{
			payload: fields,
			file:    []byte(fmt.Sprintf("%%PDF-1.4\n%% cours %d\n", id)),
		}
	}
	return map[int64]courseFixture{
		1: course(1, map[string]any{"titre": "Prévention", "description": "Les bases de la prévention incendie."}),
		2: course(2, map[string]any{"nom": "Matériel", "descriptif": "Tuyaux, lances et pièces de jonction."}),
		3: course(3, map[string]any{"intitule": "Secourisme", "description": "PSC1 et gestes qui sauvent."}),
	}
}

// seedEvents places events around day so planning views have something to show.
func seedEvents(day time.Time) []map[string]any {
	y, m, d := day.Date()
	at := func(offsetDays, hour int) string {
		return time.Date(y, m, d+offsetDays, hour, 0, 0, 0, time.Local).Format("2006-01-02T15:04:05")
	}
	return []map[string]any{
		{
			"id":        1,
			"titre":     "Manœuvre incendie",
			"dateDebut": at(0, 9),
			"dateFin":   at(0, 12),
			"lieu":      "Caserne d'Épinal",
			"formateur": "Sgt Durand",
		},
		{
			"id":         "2",
			"nom":        "Sport",
			"date_debut": at(0, 14),
			"date_fin":   at(0, 16),
			"adresse":    "Gymnase municipal",
		},
		{
			"titre":      "Cérémonie",
			"start":      at(1, 0),
			"allDay":     true,
			"descriptif": "Tenue de cérémonie exigée.",
		},
	}
}
