package config

// Default prompt templates for the LLM summarizer. The placeholders
// {{LATEST_REPORT}}, {{PREVIOUS_REPORT}}, {{LATEST_DATE}} and
// {{PREVIOUS_DATE}} are substituted before the call.

const DefaultComparisonPrompt = `You are helping a classic car hunter track the market.

Below are two market reports of active classifieds listings, grouped by model
and sorted by price. Compare them and write a short summary (max 10 sentences)
covering: listings that appeared or disappeared, notable price changes, and
anything unusual. Be concrete — name the cars and prices.

Previous report ({{PREVIOUS_DATE}}):
{{PREVIOUS_REPORT}}

Latest report ({{LATEST_DATE}}):
{{LATEST_REPORT}}

Summary:`

const DefaultRecommendationPrompt = `You are helping a classic car hunter pick the best deals.

Below is a market report of active classifieds listings within budget, grouped
by model and sorted by price. Pick the 5 best value-for-money cars. For each
pick write one line: a number, the car name, the price, a short reason, and
the listing URL at the end.

Report ({{LATEST_DATE}}):
{{LATEST_REPORT}}

Top 5 picks:`
