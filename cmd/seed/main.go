package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/Pallinder/go-randomdata"

	"github.com/alphabot-ai/noticeboard/internal/client"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Noticeboard server URL")
	members := flag.Int("members", 5, "Number of members to register")
	articles := flag.Int("articles", 12, "Number of articles to write")
	flag.Parse()

	log.Printf("Seeding %s...\n", *baseURL)

	var clients []*client.Client
	var names []string
	for i := 0; i < *members; i++ {
		name := strings.ToLower(randomdata.SillyName())
		creds, err := client.GenerateCredentials(name)
		if err != nil {
			log.Fatalf("generate credentials for %s: %v", name, err)
		}
		c := client.New(*baseURL)
		if _, err := c.Register(creds, fmt.Sprintf("%s %s from %s", randomdata.Adjective(), randomdata.Noun(), randomdata.City())); err != nil {
			log.Printf("✗ Failed to register %s: %v", name, err)
			continue
		}
		if err := c.Authenticate(creds); err != nil {
			log.Fatalf("authenticate %s: %v", name, err)
		}
		log.Printf("✓ Registered member: %s", name)
		clients = append(clients, c)
		names = append(names, name)
	}
	if len(clients) == 0 {
		log.Fatal("no members registered")
	}

	var ids []int64
	for i := 0; i < *articles; i++ {
		idx := rand.Intn(len(clients))
		subject := fmt.Sprintf("%s %s in %s", randomdata.Adjective(), randomdata.Noun(), randomdata.City())
		article, err := clients[idx].WriteArticle(subject, randomdata.Paragraph())
		if err != nil {
			log.Printf("✗ Failed to write article: %v", err)
			continue
		}
		ids = append(ids, article.ID)
		log.Printf("✓ Article #%d: %s (by %s)", article.ID, subject, names[idx])

		// Small delay to spread out created_at times
		time.Sleep(50 * time.Millisecond)
	}

	// Authors revise some of their own articles
	edited := 0
	for i, id := range ids {
		if rand.Float32() >= 0.3 {
			continue
		}
		c := clients[i%len(clients)]
		article, err := c.GetArticle(id)
		if err != nil || article.MemberID != c.MemberID {
			continue
		}
		if _, err := c.ModifyArticle(id, article.Subject+" (updated)", article.Content); err == nil {
			edited++
		}
	}

	stats, err := clients[0].GetStats()
	if err != nil {
		log.Fatalf("stats: %v", err)
	}

	fmt.Println("\n=== Seed Complete ===")
	fmt.Printf("Members:  %d\n", stats.Members)
	fmt.Printf("Articles: %d (%d edited)\n", stats.Articles, edited)
	fmt.Println("\nView at:", *baseURL)
}
