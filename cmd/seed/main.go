// README: Seeds the price matrix and a demo roster for local development.
package main

import (
	"context"
	"log"

	"pitstop/internal/config"
	"pitstop/internal/infra"
)

type matrixSeed struct {
	brand, model          string
	yearFrom, yearTo      int
	serviceType           string
	price                 int64
	t40, t70, t100, tOver int64
}

var matrixSeeds = []matrixSeed{
	{"Volkswagen", "Golf 7", 2012, 2019, "inspection", 34900, 29900, 34900, 39900, 44900},
	{"Volkswagen", "Golf 8", 2019, 2024, "inspection", 37900, 32900, 37900, 42900, 47900},
	{"Volkswagen", "Passat B8", 2014, 2023, "inspection", 39900, 34900, 39900, 44900, 49900},
	{"Volkswagen", "Golf 7", 2012, 2019, "oil_change", 19900, 0, 0, 0, 0},
	{"Volkswagen", "Golf 7", 2012, 2019, "brake_service", 32900, 0, 0, 0, 0},
	{"BMW", "3er F30", 2011, 2019, "inspection", 44900, 39900, 44900, 49900, 54900},
	{"BMW", "3er G20", 2018, 2024, "inspection", 49900, 44900, 49900, 54900, 59900},
	{"BMW", "5er G30", 2016, 2024, "inspection", 54900, 49900, 54900, 59900, 64900},
	{"BMW", "3er F30", 2011, 2019, "oil_change", 24900, 0, 0, 0, 0},
	{"Mercedes-Benz", "C-Klasse W205", 2014, 2021, "inspection", 47900, 42900, 47900, 52900, 57900},
	{"Mercedes-Benz", "E-Klasse W213", 2016, 2023, "inspection", 52900, 47900, 52900, 57900, 62900},
	{"Audi", "A4 B9", 2015, 2023, "inspection", 45900, 40900, 45900, 50900, 55900},
	{"Audi", "A3 8V", 2012, 2020, "inspection", 38900, 33900, 38900, 43900, 48900},
	{"Toyota", "Corolla E210", 2018, 2024, "inspection", 32900, 27900, 32900, 37900, 42900},
	{"Toyota", "Corolla E210", 2018, 2024, "oil_change", 17900, 0, 0, 0, 0},
	{"Skoda", "Octavia III", 2012, 2020, "inspection", 33900, 28900, 33900, 38900, 43900},
}

type userSeed struct {
	id, name, phone, role string
}

var userSeeds = []userSeed{
	{"u_demo_customer", "Lena Hoffmann", "+49 171 5550001", "customer"},
	{"u_demo_customer_2", "Jonas Weber", "+49 171 5550002", "customer"},
	{"j_demo_1", "Mara Fischer", "+49 171 5550101", "jockey"},
	{"j_demo_2", "Timo Brandt", "+49 171 5550102", "jockey"},
	{"j_demo_3", "Selin Acar", "+49 171 5550103", "jockey"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	db, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer db.Close()

	for _, u := range userSeeds {
		_, err := db.Exec(ctx, `
            INSERT INTO users (id, name, phone, role, active)
            VALUES ($1, $2, $3, $4, TRUE)
            ON CONFLICT (id) DO NOTHING`,
			u.id, u.name, u.phone, u.role,
		)
		if err != nil {
			log.Fatalf("seed user %s: %v", u.id, err)
		}
	}

	if _, err := db.Exec(ctx, `TRUNCATE TABLE price_matrix`); err != nil {
		log.Fatalf("reset price matrix: %v", err)
	}
	for _, m := range matrixSeeds {
		_, err := db.Exec(ctx, `
            INSERT INTO price_matrix (
                brand, model, year_from, year_to, service_type,
                price, tier_under_40k, tier_under_70k, tier_under_100k, tier_over_100k
            ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			m.brand, m.model, m.yearFrom, m.yearTo, m.serviceType,
			m.price, m.t40, m.t70, m.t100, m.tOver,
		)
		if err != nil {
			log.Fatalf("seed matrix row %s %s: %v", m.brand, m.model, err)
		}
	}

	log.Printf("seeded %d users and %d price matrix rows", len(userSeeds), len(matrixSeeds))
}
