package compose

import "fmt"

// dbServiceSpec describes how to wire one database flavor into a
// template-generated compose document (spec.md §4.5).
type dbServiceSpec struct {
	name       string
	image      string
	scheme     string
	port       int
	env        map[string]string
	healthTest []string
}

var dbServices = map[string]dbServiceSpec{
	"postgres": {
		name:   "postgres",
		image:  "postgres:16-alpine",
		scheme: "postgres",
		port:   5432,
		env: map[string]string{
			"POSTGRES_USER":     "preview",
			"POSTGRES_PASSWORD": "preview",
		},
		healthTest: []string{"CMD-SHELL", "pg_isready -U preview"},
	},
	"mysql": {
		name:   "mysql",
		image:  "mysql:8.4",
		scheme: "mysql",
		port:   3306,
		env: map[string]string{
			"MYSQL_USER":                 "preview",
			"MYSQL_PASSWORD":             "preview",
			"MYSQL_ALLOW_EMPTY_PASSWORD": "yes",
		},
		healthTest: []string{"CMD-SHELL", "mysqladmin ping -h localhost -u preview -ppreview"},
	},
	"mongodb": {
		name:   "mongodb",
		image:  "mongo:7",
		scheme: "mongodb",
		port:   27017,
		env: map[string]string{
			"MONGO_INITDB_ROOT_USERNAME": "preview",
			"MONGO_INITDB_ROOT_PASSWORD": "preview",
		},
		healthTest: []string{"CMD", "mongosh", "--eval", "db.adminCommand('ping')"},
	},
}

var extraServices = map[string]func() map[string]any{
	"redis": func() map[string]any {
		return map[string]any{
			"image": "redis:7-alpine",
			"healthcheck": map[string]any{
				"test":     []string{"CMD", "redis-cli", "ping"},
				"interval": "5s",
				"timeout":  "3s",
				"retries":  5,
			},
		}
	},
}

// databaseURL renders the DATABASE_URL env value injected into the app
// service for prNumber's database.
func (d dbServiceSpec) databaseURL(prNumber int) string {
	return fmt.Sprintf("%s://preview:preview@%s:%d/pr_%d", d.scheme, d.name, d.port, prNumber)
}

func (d dbServiceSpec) serviceBlock() map[string]any {
	env := map[string]string{}
	for k, v := range d.env {
		env[k] = v
	}
	return map[string]any{
		"image":       d.image,
		"environment": env,
		"healthcheck": map[string]any{
			"test":     d.healthTest,
			"interval": "5s",
			"timeout":  "3s",
			"retries":  10,
		},
	}
}
