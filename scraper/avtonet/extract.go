package avtonet

import (
	"fmt"
	"net/url"

	"classic-hunt/config"
)

// rowData mirrors the object built per result row inside the browser.
type rowData struct {
	Title      string `json:"title"`
	Price      string `json:"price"`
	Year       string `json:"year"`
	Kilometers string `json:"kilometers"`
	Horsepower string `json:"horsepower"`
	Fuel       string `json:"fuel"`
	Gearbox    string `json:"gearbox"`
	Color      string `json:"color"`
	Phone      string `json:"phone"`
	ImageURL   string `json:"imageUrl"`
	Link       string `json:"link"`
}

// searchURL builds the avto.net results URL for one search. The long tail of
// fixed parameters matches what the site's own search form submits; only the
// brand, model and the price/year bounds vary.
func searchURL(car config.CarSearch) string {
	return fmt.Sprintf(
		"https://www.avto.net/Ads/results.asp?znamka=%s&model=%s&modelID="+
			"&tip=katerikoli%%20tip&znamka2=&model2=&tip2=katerikoli%%20tip"+
			"&znamka3=&model3=&tip3=katerikoli%%20tip"+
			"&cenaMin=%d&cenaMax=%d&letnikMin=%d&letnikMax=%d"+
			"&bencin=0&starost2=999&oblika=0&ccmMin=0&ccmMax=99999"+
			"&mocMin=&mocMax=&kmMin=0&kmMax=9999999&kwMin=0&kwMax=999"+
			"&motortakt=&motorvalji=&lokacija=0&sirina=&dolzina="+
			"&dolzinaMIN=&dolzinaMAX=&nosilnostMIN=&nosilnostMAX="+
			"&sedezevMIN=&sedezevMAX=&lezisc=&presek=&premer=&col=&vijakov="+
			"&EToznaka=&vozilo=&airbag=&barva=&barvaint=&doseg=&BkType="+
			"&BkOkvir=&BkOkvirType=&Bk4=&EQ1=1000000000&EQ2=1000000000"+
			"&EQ3=1000000000&EQ4=100000000&EQ5=1000000000&EQ6=1000000000"+
			"&EQ7=1000000120&EQ8=101000000&EQ9=100000002&EQ10=100000000"+
			"&KAT=1010000000&PIA=&PIAzero=&PIAOut=&PSLO=&akcija="+
			"&paketgarancije=&broker=&prikazkategorije=&kategorija="+
			"&ONLvid=&ONLnak=&zaloga=&arhiv=&presort=&tipsort=&stran=",
		url.QueryEscape(car.Brand), url.QueryEscape(car.Model),
		car.MinPrice, car.MaxPrice, car.MinYear, car.MaxYear)
}

// extractScript runs in the page and maps every .GO-Results-Row to a
// rowData object. Field heuristics work on the row's full text: the result
// markup carries no per-field structure beyond the title, price and image
// nodes, so year, mileage, power, fuel, gearbox, color and phone come from
// pattern matches over the row text (Slovenian vocabulary).
const extractScript = `
(function() {
	var rows = document.querySelectorAll('.GO-Results-Row');
	var results = [];
	for (var i = 0; i < rows.length; i++) {
		var row = rows[i];
		var allText = row.innerText || '';

		var yearMatch = allText.match(/(\d{1,2}\/\d{4})/) || allText.match(/\b(19|20)\d{2}\b/);
		var kmMatch = allText.match(/([\d.]+)\s*km/);
		var hpMatch = allText.match(/(\d+)\s*(?:KM|kM|HP|hp|KS|ks|konji)/);
		var gearboxMatch = allText.match(/(?:ročni|avtomatski|polavtomatski|avtomatik)/i);
		var fuelMatch = allText.match(/(?:bencin|diesel|dizel|plin|elektr|hybrid|hibrid|LPG|CNG)/i);
		var colorMatch = allText.match(/(?:črna|bela|siva|srebrna|rdeča|modra|zelena|rumena|oranžna|rjava|bež|vijolična|zlata)/i);
		// Slovenian phone numbers: 0X0 XXX XXX, 0X XXX XX XX, +386 ...
		var phoneMatch = allText.match(/(?:\+386[\s-]?\d[\s-]?\d{3}[\s-]?\d{2}[\s-]?\d{2}|0[1-7]\d[\s-]?\d{3}[\s-]?\d{3}|0[1-7][\s-]?\d{3}[\s-]?\d{2}[\s-]?\d{2})/);

		var titleEl = row.querySelector('.GO-Results-Naziv');
		var priceEl = row.querySelector('.GO-Results-Price');
		var price = priceEl ? priceEl.innerText.replace(/[\r\n]+/g, ' ').replace(/\s{2,}/g, ' ').trim() : '';
		if (price && price.indexOf('AKCIJSKA CENA') === 0) {
			// Promotional rows list old and new price; keep the discounted one.
			var prices = price.match(/[\d.]+\s*€/g);
			if (prices && prices.length > 1) price = prices[prices.length - 1].trim();
		} else if (price && price.indexOf('oz.') !== -1) {
			var alt = price.match(/[\d.]+\s*€/g);
			if (alt && alt.length > 0) price = alt[0].trim();
		}

		var imgEl = row.querySelector('img');
		var linkEl = row.querySelector('a');

		results.push({
			title:      titleEl ? titleEl.innerText.trim() : '',
			price:      price,
			year:       yearMatch ? yearMatch[0] : '',
			kilometers: kmMatch ? kmMatch[1] + ' km' : '',
			horsepower: hpMatch ? hpMatch[1] + ' HP' : '',
			fuel:       fuelMatch ? fuelMatch[0] : '',
			gearbox:    gearboxMatch ? gearboxMatch[0] : '',
			color:      colorMatch ? colorMatch[0] : '',
			phone:      phoneMatch ? phoneMatch[0].trim() : '',
			imageUrl:   imgEl ? imgEl.src : '',
			link:       linkEl ? linkEl.href : ''
		});
	}
	return results;
})()
`
