package models

import "time"

// HomeContent section names addressable by the PATCH /{section} endpoint.
var HomeSections = []string{"hero", "about", "stats", "programs", "gallery", "testimonials"}

type HeroSection struct {
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle,omitempty"`
	BackgroundImage string `json:"backgroundImage,omitempty"`
	CTAText         string `json:"ctaText,omitempty"`
	CTALink         string `json:"ctaLink,omitempty"`
	CTAVisible      bool   `json:"ctaVisible"`
}

type AboutValue struct {
	Icon        string `json:"icon,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type AboutSection struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Mission     string       `json:"mission,omitempty"`
	Vision      string       `json:"vision,omitempty"`
	Values      []AboutValue `json:"values,omitempty"`
	Images      []string     `json:"images,omitempty"`
}

type StatItem struct {
	Number string `json:"number"`
	Label  string `json:"label"`
	Icon   string `json:"icon,omitempty"`
}

type ProgramItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
	Link        string `json:"link,omitempty"`
	Active      bool   `json:"active"`
}

type GalleryImage struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Alt     string `json:"alt,omitempty"`
	Caption string `json:"caption,omitempty"`
}

type GallerySection struct {
	Title  string         `json:"title"`
	Images []GalleryImage `json:"images,omitempty"`
}

type Testimonial struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Role    string `json:"role,omitempty"`
	Message string `json:"message"`
	Photo   string `json:"photo,omitempty"`
}

// HomeContent is the single editable document backing the public homepage.
// Sections are persisted as individual JSONB columns so they can be patched
// independently.
type HomeContent struct {
	ID              string         `json:"id"`
	Hero            HeroSection    `json:"hero"`
	About           AboutSection   `json:"about"`
	Stats           []StatItem     `json:"stats"`
	Programs        []ProgramItem  `json:"programs"`
	Gallery         GallerySection `json:"gallery"`
	Testimonials    []Testimonial  `json:"testimonials"`
	Published       bool           `json:"isPublished"`
	PublishedAt     *time.Time     `json:"publishedAt,omitempty"`
	LastPublishedBy string         `json:"lastPublishedBy,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// DefaultHomeContent is the seed document served until an editor publishes
// real content.
func DefaultHomeContent() *HomeContent {
	return &HomeContent{
		Hero: HeroSection{
			Title:      "Fundação Escola Solidária",
			Subtitle:   "Transformando vidas através da educação",
			CTAText:    "Saiba Mais",
			CTALink:    "#sobre",
			CTAVisible: true,
		},
		About: AboutSection{
			Title: "Sobre a Fundação",
		},
		Gallery:   GallerySection{Title: "Nossa Galeria"},
		Published: true,
	}
}
